package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"course-migrator/pkg/domain"
	"course-migrator/pkg/youtube"
)

// videoStrategy finds a video id in a lesson page
type videoStrategy func(doc *goquery.Document) (string, bool)

// videoStrategies are tried in order; the first hit wins
var videoStrategies = []videoStrategy{
	thumbnailImage,
	embedIframe,
	videoContainer,
	youtubePlayer,
}

// FindVideoID returns the YouTube id referenced by a lesson page, or
// domain.NoVideoID when none of the known markups is present
func FindVideoID(doc *goquery.Document) string {
	for _, strategy := range videoStrategies {
		if id, ok := strategy(doc); ok {
			return id
		}
	}
	return domain.NoVideoID
}

func thumbnailImage(doc *goquery.Document) (string, bool) {
	var id string
	doc.Find(`img[src*="img.youtube.com/vi/"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		id, _ = youtube.IDFromThumbnail(src)
		return id == ""
	})
	return id, id != ""
}

func embedIframe(doc *goquery.Document) (string, bool) {
	var id string
	doc.Find(`iframe[src*="youtube.com/embed/"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		id, _ = youtube.IDFromEmbed(src)
		return id == ""
	})
	return id, id != ""
}

func videoContainer(doc *goquery.Document) (string, bool) {
	return attrValue(doc, "div.video-container[data-video]", "data-video")
}

func youtubePlayer(doc *goquery.Document) (string, bool) {
	return attrValue(doc, "div#youtube-player[data-id]", "data-id")
}

func attrValue(doc *goquery.Document, selector, attr string) (string, bool) {
	v, _ := doc.Find(selector).First().Attr(attr)
	v = strings.TrimSpace(v)
	return v, v != ""
}
