package discovery

import (
	"fmt"
	"io"

	"github.com/mmcdole/gofeed"

	"course-migrator/pkg/urls"
)

// FeedParser reads RSS, Atom and JSON feeds
type FeedParser struct {
	feedParser *gofeed.Parser
}

// NewFeedParser creates a feed parser
func NewFeedParser() *FeedParser {
	return &FeedParser{feedParser: gofeed.NewParser()}
}

// Parse returns the item links of a feed
func (p *FeedParser) Parse(r io.Reader) ([]urls.URL, error) {
	feed, err := p.feedParser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	out := make([]urls.URL, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link != "" {
			out = append(out, urls.URL{Location: item.Link, Title: item.Title})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in feed items", ErrNoURLs)
	}
	return out, nil
}
