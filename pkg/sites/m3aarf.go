package sites

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"course-migrator/pkg/domain"

	"github.com/PuerkitoBio/goquery"
)

var m3aarfLessonLink = regexp.MustCompile(`m3aarf\.com/lesson/\d+`)

// M3aarf extracts courses from m3aarf.com. Listings are paginated with ?page=N.
type M3aarf struct {
	baseProfile
}

// NewM3aarf creates the m3aarf profile
func NewM3aarf(p paginator) *M3aarf {
	return &M3aarf{baseProfile{
		domainMatcher: newDomainMatcher(`m3aarf\.com`),
		name:          "m3aarf",
		labels:        []string{"ملحقات الدرس", "Lesson extensions"},
		pager:         p,
	}}
}

// ExtractCourse reads the course metadata from an m3aarf course page
func (m *M3aarf) ExtractCourse(pageURL, html string) (domain.CourseRecord, error) {
	course := domain.NewCourseRecord(pageURL, m.name)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return course, fmt.Errorf("failed to parse HTML: %w", err)
	}

	course.CourseName = cleanText(doc.Find("h1").First().Text())
	course.Category = cleanText(firstText(doc, ".breadcrumb-item.active a", ".breadcrumb-item.active"))
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		course.Description = cleanText(desc)
	}
	course.Thumbnail = domain.PendingThumb
	return course, nil
}

// ExtractLessons collects lessons across up to the page cap of listing pages
func (m *M3aarf) ExtractLessons(ctx context.Context, pageURL, html, cookies string) ([]domain.Lesson, error) {
	return m.pager.collect(ctx, pageURL, html, cookies, m.pageLessons)
}

func (m *M3aarf) pageLessons(doc *goquery.Document, pageURL string) []domain.Lesson {
	var lessons []domain.Lesson
	doc.Find("a.lesson-item[href]").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := resolveURL(href, pageURL)
		if !m3aarfLessonLink.MatchString(link) {
			return
		}

		title, ok := a.Attr("title")
		if !ok || strings.TrimSpace(title) == "" {
			title = a.Text()
		}

		durationSel := a.Find("span.lesson-duration")
		if durationSel.Length() == 0 {
			durationSel = a.Parent().Find("span.lesson-duration")
		}
		duration := strings.TrimSpace(durationSel.First().Text())
		if duration == "" {
			duration = domain.UnknownDuration
		}

		lessons = append(lessons, domain.Lesson{
			Title:    cleanText(title),
			Link:     link,
			Duration: domain.NormalizeDuration(duration),
		})
	})
	return lessons
}
