package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var descriptionURLPattern = regexp.MustCompile(`https?://www\.m3aarf\.com/lesson/description/\d+`)

// LocateContentFrame returns the src of the iframe that carries a lesson's
// supplementary content. It tries, in order: the first iframe following a
// .home_title heading that matches one of labels, an iframe directly inside
// div.row.m3aarf_card, and any m3aarf lesson description URL in the page.
func LocateContentFrame(doc *goquery.Document, rawHTML string, labels []string) (string, bool) {
	if src, ok := frameAfterLabel(doc, labels); ok {
		return src, true
	}
	if src, ok := doc.Find("div.row.m3aarf_card > iframe[src]").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		return strings.TrimSpace(src), true
	}
	if m := descriptionURLPattern.FindString(rawHTML); m != "" {
		return m, true
	}
	return "", false
}

// frameAfterLabel walks headings and iframes in document order
func frameAfterLabel(doc *goquery.Document, labels []string) (string, bool) {
	if len(labels) == 0 {
		return "", false
	}
	var src string
	armed := false
	doc.Find(".home_title, iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Is(".home_title") {
			armed = matchesLabel(s.Text(), labels)
			return true
		}
		if armed {
			src = strings.TrimSpace(s.AttrOr("src", ""))
			return src == ""
		}
		return true
	})
	return src, src != ""
}

func matchesLabel(text string, labels []string) bool {
	text = strings.Join(strings.Fields(text), " ")
	for _, label := range labels {
		if label != "" && strings.Contains(text, label) {
			return true
		}
	}
	return false
}
