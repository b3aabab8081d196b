// Package discovery finds course URLs for batch scraping. A location is a
// sitemap (or sitemap index), an RSS/Atom/JSON feed, or a local file with
// one URL per line.
package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"course-migrator/pkg/httpclient"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/urls"
)

// ErrNoURLs is returned when a source yields no usable URL
var ErrNoURLs = errors.New("no URLs found")

// Fetcher downloads remote sources
type Fetcher interface {
	FetchBytes(ctx context.Context, url, cookies string) (*httpclient.Response, error)
}

// Discoverer resolves a location to a list of candidate URLs
type Discoverer struct {
	sitemaps *SitemapParser
	feeds    *FeedParser
	files    *FileParser
	fetcher  Fetcher
	log      logger.Logger
}

// New creates a discoverer
func New(fetcher Fetcher, log logger.Logger) *Discoverer {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.Component("discovery"))
	return &Discoverer{
		sitemaps: NewSitemapParser(fetcher, log),
		feeds:    NewFeedParser(),
		files:    NewFileParser(),
		fetcher:  fetcher,
		log:      log,
	}
}

// Discover returns the URLs listed at location. Local paths are read as
// URL files; remote documents are sniffed as sitemap or feed.
func (d *Discoverer) Discover(ctx context.Context, location string) ([]urls.URL, error) {
	if isLocal(location) {
		return d.files.Parse(location)
	}

	resp, err := d.fetcher.FetchBytes(ctx, location, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}

	if isSitemap(resp.Body) {
		d.log.Debug("parsing sitemap", logger.String("url", location))
		return d.sitemaps.parse(ctx, resp.Body, 0)
	}
	d.log.Debug("parsing feed", logger.String("url", location))
	return d.feeds.Parse(bytes.NewReader(resp.Body))
}

// Filter drops base URLs, unsupported sites, batch repeats and URLs already
// in the ledger, in that order
func Filter(ctx context.Context, found []urls.URL, supported urls.MatcherFunc, seen urls.SeenChecker) ([]string, error) {
	list := make([]string, 0, len(found))
	for _, u := range found {
		list = append(list, u.Location)
	}
	filters := []urls.UrlFilter{urls.NewBaseURLFilter()}
	if supported != nil {
		filters = append(filters, urls.NewSupportedSiteFilter(supported))
	}
	filters = append(filters, urls.NewDedupFilter())
	if seen != nil {
		filters = append(filters, urls.NewAlreadyFetchedFilter(seen))
	}
	return urls.FilterURLs(ctx, list, filters...)
}

func isLocal(location string) bool {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return false
	}
	_, err := os.Stat(location)
	return err == nil || !strings.Contains(location, "://")
}

func isSitemap(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<urlset")) || bytes.Contains(head, []byte("<sitemapindex"))
}
