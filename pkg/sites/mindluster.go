package sites

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"course-migrator/pkg/domain"

	"github.com/PuerkitoBio/goquery"
)

var (
	mindlusterLessonLink = regexp.MustCompile(`mindluster\.(com|org|net)/lesson/\d+-video`)
	mindlusterCategory   = regexp.MustCompile(`certified/cat/\d+/([^/?#"]+)`)
)

// Mindluster extracts courses from mindluster.com. Pages require a logged-in session.
type Mindluster struct {
	baseProfile
}

// NewMindluster creates the mindluster profile
func NewMindluster(p paginator) *Mindluster {
	return &Mindluster{baseProfile{
		domainMatcher: newDomainMatcher(`mindluster\.com`, `mindluster\.org`, `mindluster\.net`),
		name:          "mindluster",
		cookies:       true,
		labels:        []string{"Lesson extensions", "ملحقات الدرس"},
		pager:         p,
	}}
}

// ExtractCourse reads the course metadata from a mindluster course page
func (m *Mindluster) ExtractCourse(pageURL, html string) (domain.CourseRecord, error) {
	course := domain.NewCourseRecord(pageURL, m.name)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return course, fmt.Errorf("failed to parse HTML: %w", err)
	}

	course.CourseName = cleanText(doc.Find("h1#course_title").First().Text())

	doc.Find(`li.breadcrumb-item a[href], a[href*="certified/cat/"]`).EachWithBreak(func(i int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		match := mindlusterCategory.FindStringSubmatch(href)
		if match == nil {
			return true
		}
		slug, err := url.PathUnescape(match[1])
		if err != nil {
			slug = match[1]
		}
		course.Category = cleanText(strings.ReplaceAll(slug, "-", " "))
		return false
	})

	doc.Find("div.home_title").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if n := lessonCountFrom(s.Text()); n != "" {
			course.LessonCount = n
			return false
		}
		return true
	})

	course.Description = cleanText(outerHTMLAll(doc.Find("div.m3aarf_card")))
	course.Thumbnail = domain.PendingThumb
	return course, nil
}

// ExtractLessons collects lesson links paired with their durations across the listing pages
func (m *Mindluster) ExtractLessons(ctx context.Context, pageURL, html, cookies string) ([]domain.Lesson, error) {
	return m.pager.collect(ctx, pageURL, html, cookies, m.pageLessons)
}

// pageLessons pairs the n-th lesson link with the n-th span.lesson_duration
func (m *Mindluster) pageLessons(doc *goquery.Document, pageURL string) []domain.Lesson {
	var durations []string
	doc.Find("span.lesson_duration").Each(func(i int, s *goquery.Selection) {
		durations = append(durations, strings.TrimSpace(s.Text()))
	})

	var lessons []domain.Lesson
	idx := 0
	doc.Find("a[href][title]").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := resolveURL(href, pageURL)
		if !mindlusterLessonLink.MatchString(link) {
			return
		}
		title, _ := a.Attr("title")

		duration := domain.UnknownDuration
		if idx < len(durations) {
			duration = durations[idx]
		}
		idx++

		lessons = append(lessons, domain.Lesson{
			Title:    cleanText(title),
			Link:     link,
			Duration: domain.NormalizeDuration(duration),
		})
	})
	return lessons
}
