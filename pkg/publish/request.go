package publish

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"course-migrator/pkg/domain"
	"course-migrator/pkg/textclean"
	"course-migrator/pkg/tutor"
)

const (
	excerptRunes     = 155
	minRTLContent    = 20
	defaultMaterials = "Video lessons\nPractical examples\nLifetime access"
	defaultReqs      = "Basic computer knowledge"
	rtlContentSuffix = "Additional content details for this course. This course covers topics in depth and provides comprehensive learning material."
)

// Excerpt shortens a description to its first 155 runes followed by "..."
func Excerpt(description string) string {
	r := []rune(description)
	if len(r) <= excerptRunes {
		return description
	}
	return string(r[:excerptRunes]) + "..."
}

// TotalDuration sums lesson durations into whole hours and minutes. Seconds
// are carried as fractional minutes and the remainder is rounded half away
// from zero.
func TotalDuration(lessons []domain.Lesson) tutor.Duration {
	var total float64
	for _, l := range lessons {
		r := domain.ParseDuration(l.Duration)
		total += float64(r.Hours*60+r.Minutes) + float64(r.Seconds)/60
	}
	hours := int(total / 60)
	minutes := int(math.Round(total - float64(hours*60)))
	if minutes >= 60 {
		hours++
		minutes -= 60
	}
	return tutor.Duration{Hours: hours, Minutes: minutes}
}

// BuildCourseRequest maps a scraped course to the LMS course body. The
// author is left unset; the workflow fills it per attempt.
func BuildCourseRequest(course domain.CourseRecord, categoryID int) tutor.CourseRequest {
	benefits := make([]string, 0, len(course.Lessons))
	for _, l := range course.Lessons {
		benefits = append(benefits, "Learn "+l.Title)
	}

	thumbID, err := strconv.Atoi(strings.TrimSpace(course.ThumbnailID))
	if err != nil || thumbID <= 0 {
		thumbID = 1
	}

	return tutor.CourseRequest{
		PostTitle:        course.CourseName,
		PostContent:      course.Description,
		PostExcerpt:      Excerpt(course.Description),
		PostStatus:       "publish",
		CommentStatus:    "open",
		CourseLevel:      "beginner",
		CourseCategories: []int{categoryID},
		ThumbnailID:      thumbID,
		AdditionalContent: tutor.AdditionalContent{
			CourseBenefits:         strings.Join(benefits, "\n"),
			CourseTargetAudience:   "Students interested in " + course.Category,
			CourseDuration:         TotalDuration(course.Lessons),
			CourseMaterialIncludes: defaultMaterials,
			CourseRequirements:     defaultReqs,
		},
	}
}

// Coerce fills the fields the LMS validator rejects when empty
func Coerce(req tutor.CourseRequest, now time.Time) tutor.CourseRequest {
	stamp := now.Format(domain.CreatedAtLayout)
	if strings.TrimSpace(req.PostTitle) == "" {
		req.PostTitle = "Untitled Course " + stamp
	}
	if strings.TrimSpace(req.PostContent) == "" {
		req.PostContent = "Course content created on " + stamp
	}
	if textclean.HasRTL(req.PostContent) && len([]rune(strings.TrimSpace(req.PostContent))) < minRTLContent {
		req.PostContent = strings.TrimSpace(req.PostContent) + " - " + rtlContentSuffix
	}
	if req.PostStatus == "" {
		req.PostStatus = "publish"
	}
	if req.CommentStatus == "" {
		req.CommentStatus = "open"
	}
	if req.CourseLevel == "" {
		req.CourseLevel = "beginner"
	}

	ac := &req.AdditionalContent
	for _, f := range []struct {
		field *string
		name  string
	}{
		{&ac.CourseBenefits, "course benefits"},
		{&ac.CourseTargetAudience, "course target audience"},
		{&ac.CourseRequirements, "course requirements"},
		{&ac.CourseMaterialIncludes, "course material includes"},
	} {
		if strings.TrimSpace(*f.field) == "" {
			*f.field = "Default " + f.name
		}
	}

	if len(req.CourseCategories) == 0 {
		req.CourseCategories = []int{1}
	}
	if req.ThumbnailID <= 0 {
		req.ThumbnailID = 1
	}
	return req
}

func topicRequest(courseID int, name string, author int) tutor.TopicRequest {
	return tutor.TopicRequest{
		TopicCourseID: courseID,
		TopicTitle:    fmt.Sprintf("%s - Lessons", name),
		TopicSummary:  fmt.Sprintf("All lessons for %s", name),
		TopicAuthor:   author,
	}
}
