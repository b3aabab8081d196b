package content

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"course-migrator/pkg/textclean"
)

const (
	// MinContentLength is the rune count a layer must exceed to be accepted
	MinContentLength = 20
	largestDivMin    = 100
)

// Extractor turns a fetched document into normalized lesson text
type Extractor interface {
	ExtractText(htmlContent string) (string, error)
}

// LayeredExtractor tries progressively cruder strategies until one yields
// enough text
type LayeredExtractor struct {
	locale textclean.Locale
}

// NewLayeredExtractor creates an extractor that normalizes with locale
func NewLayeredExtractor(locale textclean.Locale) *LayeredExtractor {
	return &LayeredExtractor{locale: locale}
}

type layer func(doc *goquery.Document, raw string) string

// ExtractText returns the first layer result longer than MinContentLength.
// The raw document cleaned as a whole is the last resort.
func (e *LayeredExtractor) ExtractText(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	layers := []layer{semanticContainers, readabilityText, largestDiv, bodyText}
	for _, l := range layers {
		if text := e.clean(l(doc, htmlContent)); longEnough(text) {
			return text, nil
		}
	}
	return e.clean(htmlContent), nil
}

func (e *LayeredExtractor) clean(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := textclean.Clean(s, e.locale)
	if text == textclean.PlaceholderEN || text == textclean.PlaceholderAR {
		return ""
	}
	return text
}

func longEnough(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > MinContentLength
}

func semanticContainers(doc *goquery.Document, _ string) string {
	var parts []string
	doc.Find("article, div[class*=content], .m3aarf_card").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

func readabilityText(_ *goquery.Document, raw string) string {
	article, err := readability.FromReader(strings.NewReader(raw), nil)
	if err != nil {
		return ""
	}
	return article.TextContent
}

func largestDiv(doc *goquery.Document, _ string) string {
	best := ""
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(t) > largestDivMin && len(t) > len(best) {
			best = t
		}
	})
	return best
}

func bodyText(doc *goquery.Document, _ string) string {
	return doc.Find("body").Text()
}
