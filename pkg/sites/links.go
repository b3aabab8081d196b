package sites

import (
	"net/url"
	"regexp"
	"strings"

	"course-migrator/pkg/domain"
	"course-migrator/pkg/textclean"

	"github.com/PuerkitoBio/goquery"
)

// resolveURL turns href into an absolute URL relative to pageURL and drops the fragment
func resolveURL(href, pageURL string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	parsed.Fragment = ""
	if parsed.IsAbs() {
		return parsed.String()
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}

// cleanText normalizes extracted text, returning the NotFound sentinel for empty input
func cleanText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return domain.NotFound
	}
	return textclean.Clean(raw, textclean.LocaleAuto)
}

// firstText returns the text of the first selector that yields something
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// outerHTMLAll concatenates the markup of every match
func outerHTMLAll(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Each(func(i int, s *goquery.Selection) {
		if h, err := goquery.OuterHtml(s); err == nil {
			b.WriteString(h)
			b.WriteString("\n")
		}
	})
	return b.String()
}

var countPattern = regexp.MustCompile(`\|\s*(\d+)`)

// lessonCountFrom reads "Title | 42" style counters
func lessonCountFrom(text string) string {
	if m := countPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
