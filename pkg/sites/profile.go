package sites

import (
	"context"
	"fmt"
	"strconv"

	"course-migrator/pkg/domain"
)

// baseProfile carries the settings shared by every built-in profile
type baseProfile struct {
	domainMatcher
	name    string
	cookies bool
	labels  []string
	pager   paginator
}

func (b baseProfile) Name() string            { return b.name }
func (b baseProfile) NeedsCookies() bool      { return b.cookies }
func (b baseProfile) ContentLabels() []string { return b.labels }

// ScrapeCourse runs a profile over a fetched course page: metadata, then the
// paginated lesson listing. Lesson order is the order found on the pages.
func ScrapeCourse(ctx context.Context, p Profile, pageURL, html, cookies string) (domain.CourseRecord, error) {
	course, err := p.ExtractCourse(pageURL, html)
	if err != nil {
		return course, fmt.Errorf("failed to extract course: %w", err)
	}

	lessons, err := p.ExtractLessons(ctx, pageURL, html, cookies)
	if err != nil {
		return course, fmt.Errorf("failed to extract lessons: %w", err)
	}
	if lessons == nil {
		lessons = []domain.Lesson{}
	}
	course.Lessons = lessons

	if len(lessons) > 0 && (course.IntroVideo == "" || course.IntroVideo == domain.NotFound) {
		course.IntroVideo = lessons[0].Link
	}
	if course.LessonCount == "" || course.LessonCount == domain.NotFound {
		course.LessonCount = strconv.Itoa(len(lessons))
	}
	return course, nil
}
