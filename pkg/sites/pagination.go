package sites

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"course-migrator/pkg/domain"
	"course-migrator/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

// pageExtractor pulls the lesson stubs present on one listing page
type pageExtractor func(doc *goquery.Document, pageURL string) []domain.Lesson

// paginator follows "next page" links across a lesson listing
type paginator struct {
	fetcher  Fetcher
	maxPages int
	log      logger.Logger
}

// collect extracts lessons from the first page and then follows next-page
// links. It stops at maxPages pages, when a page yields no lessons that were
// not already seen, when no next link exists, or when a page fails to fetch.
func (p paginator) collect(ctx context.Context, pageURL, html, cookies string, extract pageExtractor) ([]domain.Lesson, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	log := p.log
	if log == nil {
		log = logger.NewNop()
	}

	seen := make(map[string]bool)
	var lessons []domain.Lesson
	addNew := func(found []domain.Lesson) int {
		added := 0
		for _, l := range found {
			if seen[l.Link] {
				continue
			}
			seen[l.Link] = true
			lessons = append(lessons, l)
			added++
		}
		return added
	}

	added := addNew(extract(doc, pageURL))
	log.Debug("extracted lesson page", logger.Int("page", 1), logger.Int("lessons", added))

	currentURL := pageURL
	visited := map[string]bool{pageURL: true}
	for page := 1; page < p.maxPages; page++ {
		next := nextPageURL(doc, currentURL, page+1)
		if next == "" || visited[next] {
			log.Debug("no more pagination links", logger.Int("page", page))
			break
		}
		if p.fetcher == nil {
			break
		}
		visited[next] = true

		body, err := p.fetcher.Fetch(ctx, next, cookies)
		if err != nil {
			log.Warn("failed to fetch lesson page", logger.String("url", next), logger.Error(err))
			break
		}
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			log.Warn("failed to parse lesson page", logger.String("url", next), logger.Error(err))
			break
		}

		added = addNew(extract(doc, next))
		log.Debug("extracted lesson page", logger.Int("page", page+1), logger.Int("lessons", added))
		if added == 0 {
			break
		}
		currentURL = next
	}

	return lessons, nil
}

// nextPageURL finds the link to page want: an anchor whose href carries
// page=<want>, falling back to rel="next"
func nextPageURL(doc *goquery.Document, currentURL string, want int) string {
	marker := "page=" + strconv.Itoa(want)
	var found string
	doc.Find("a[href]").EachWithBreak(func(i int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		idx := strings.Index(href, marker)
		if idx < 0 {
			return true
		}
		rest := href[idx+len(marker):]
		if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			return true
		}
		found = href
		return false
	})
	if found == "" {
		found, _ = doc.Find(`a[rel="next"], link[rel="next"]`).First().Attr("href")
	}
	if found == "" {
		return ""
	}
	return resolveURL(found, currentURL)
}
