package discovery

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"

	"course-migrator/pkg/logger"
	"course-migrator/pkg/urls"
)

// maxIndexDepth bounds nested sitemap indexes
const maxIndexDepth = 3

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Location string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Location string `xml:"loc"`
}

// SitemapParser reads sitemaps and sitemap indexes
type SitemapParser struct {
	fetcher Fetcher
	log     logger.Logger
}

// NewSitemapParser creates a sitemap parser. Child sitemaps of an index are
// downloaded with fetcher.
func NewSitemapParser(fetcher Fetcher, log logger.Logger) *SitemapParser {
	if log == nil {
		log = logger.NewNop()
	}
	return &SitemapParser{fetcher: fetcher, log: log}
}

// ParseFromURL fetches and parses a sitemap
func (p *SitemapParser) ParseFromURL(ctx context.Context, sitemapURL string) ([]urls.URL, error) {
	resp, err := p.fetcher.FetchBytes(ctx, sitemapURL, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}
	return p.parse(ctx, resp.Body, 0)
}

func (p *SitemapParser) parse(ctx context.Context, body []byte, depth int) ([]urls.URL, error) {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	if !bytes.Contains(head, []byte("sitemapindex")) {
		return parseURLSet(body)
	}

	if depth >= maxIndexDepth {
		return nil, fmt.Errorf("sitemap index nested deeper than %d levels", maxIndexDepth)
	}
	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap index XML: %w", err)
	}

	var all []urls.URL
	for _, ref := range index.Sitemaps {
		if ref.Location == "" {
			continue
		}
		resp, err := p.fetcher.FetchBytes(ctx, ref.Location, "")
		if err != nil {
			p.log.Warn("skipping child sitemap", logger.String("url", ref.Location), logger.Error(err))
			continue
		}
		found, err := p.parse(ctx, resp.Body, depth+1)
		if err != nil {
			p.log.Warn("skipping child sitemap", logger.String("url", ref.Location), logger.Error(err))
			continue
		}
		all = append(all, found...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w in any sitemap from index", ErrNoURLs)
	}
	return all, nil
}

func parseURLSet(body []byte) ([]urls.URL, error) {
	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap XML: %w", err)
	}
	out := make([]urls.URL, 0, len(set.URLs))
	for _, e := range set.URLs {
		if e.Location != "" {
			out = append(out, urls.URL{Location: e.Location})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in sitemap", ErrNoURLs)
	}
	return out, nil
}
