package sites

import (
	"context"
	"fmt"
	"strings"

	"course-migrator/pkg/domain"

	"github.com/PuerkitoBio/goquery"
)

// NewSite is the template profile for sites built on the generic course theme
// (course-title / course-category / lesson-item markup)
type NewSite struct {
	baseProfile
}

// NewNewSite creates the template profile
func NewNewSite(p paginator) *NewSite {
	return &NewSite{baseProfile{
		domainMatcher: newDomainMatcher(`new-site\.com`, `new-site\.org`, `new-site\.net`),
		name:          "new_site",
		labels:        []string{"Lesson extensions"},
		pager:         p,
	}}
}

// ExtractCourse reads the course metadata
func (n *NewSite) ExtractCourse(pageURL, html string) (domain.CourseRecord, error) {
	course := domain.NewCourseRecord(pageURL, n.name)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return course, fmt.Errorf("failed to parse HTML: %w", err)
	}

	course.CourseName = cleanText(doc.Find("h1.course-title").First().Text())
	course.Category = cleanText(doc.Find("div.course-category a").First().Text())
	if count := strings.TrimSpace(doc.Find("span.lesson-count").First().Text()); count != "" {
		course.LessonCount = count
	}
	course.Description = cleanText(outerHTMLAll(doc.Find("div.course-description").First()))
	if src, ok := doc.Find("img.course-thumbnail").First().Attr("src"); ok && src != "" {
		course.Thumbnail = resolveURL(src, pageURL)
	}
	return course, nil
}

// ExtractLessons collects lesson items across the listing pages
func (n *NewSite) ExtractLessons(ctx context.Context, pageURL, html, cookies string) ([]domain.Lesson, error) {
	return n.pager.collect(ctx, pageURL, html, cookies, n.pageLessons)
}

func (n *NewSite) pageLessons(doc *goquery.Document, pageURL string) []domain.Lesson {
	var lessons []domain.Lesson
	doc.Find("div.lesson-item").Each(func(i int, item *goquery.Selection) {
		a := item.Find("a[href]").First()
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		duration := strings.TrimSpace(item.Find("span.duration").First().Text())
		if duration == "" {
			duration = domain.UnknownDuration
		}
		lessons = append(lessons, domain.Lesson{
			Title:    cleanText(a.Text()),
			Link:     resolveURL(href, pageURL),
			Duration: domain.NormalizeDuration(duration),
		})
	})
	return lessons
}
