package urls

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// URL represents a URL entry found by a discovery source (sitemap, feed, file)
type URL struct {
	Location string
	Title    string
}

// UrlFilter defines the interface for URL filtering
type UrlFilter interface {
	ShouldKeep(ctx context.Context, url string) (bool, error)
}

// FilterURLs applies all filters to a list of URLs
func FilterURLs(ctx context.Context, list []string, filters ...UrlFilter) ([]string, error) {
	filtered := make([]string, 0, len(list))

	for _, urlStr := range list {
		keep := true
		for _, f := range filters {
			shouldKeep, err := f.ShouldKeep(ctx, urlStr)
			if err != nil {
				return nil, fmt.Errorf("filter error for URL %s: %w", urlStr, err)
			}
			if !shouldKeep {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, urlStr)
		}
	}

	return filtered, nil
}

// BaseURLFilter filters out base/root URLs
type BaseURLFilter struct{}

// NewBaseURLFilter creates a new base URL filter
func NewBaseURLFilter() *BaseURLFilter {
	return &BaseURLFilter{}
}

// ShouldKeep returns false if URL is a base/root URL
func (f *BaseURLFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return true, nil
	}

	path := strings.Trim(parsed.Path, "/")
	return path != "", nil
}

// SeenChecker reports whether a normalized URL was already processed
type SeenChecker interface {
	Contains(ctx context.Context, normalizedURL string) (bool, error)
}

// AlreadyFetchedFilter filters out URLs already recorded in the processed URL ledger
type AlreadyFetchedFilter struct {
	seen SeenChecker
}

// NewAlreadyFetchedFilter creates a new already-fetched filter
func NewAlreadyFetchedFilter(seen SeenChecker) *AlreadyFetchedFilter {
	return &AlreadyFetchedFilter{seen: seen}
}

// ShouldKeep returns false if the normalized URL is already in the ledger
func (f *AlreadyFetchedFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	exists, err := f.seen.Contains(ctx, Normalize(urlStr))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// MatcherFunc reports whether a URL is handled by some site profile
type MatcherFunc func(url string) bool

// SupportedSiteFilter keeps only URLs that a site profile can handle
type SupportedSiteFilter struct {
	match MatcherFunc
}

// NewSupportedSiteFilter creates a filter backed by match
func NewSupportedSiteFilter(match MatcherFunc) *SupportedSiteFilter {
	return &SupportedSiteFilter{match: match}
}

// ShouldKeep returns true when the URL matches a supported site
func (f *SupportedSiteFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	return f.match(urlStr), nil
}

// DedupFilter drops repeated URLs (after normalization) within one batch
type DedupFilter struct {
	seen map[string]bool
}

// NewDedupFilter creates an empty batch dedup filter
func NewDedupFilter() *DedupFilter {
	return &DedupFilter{seen: make(map[string]bool)}
}

// ShouldKeep returns false for a URL already kept by this filter
func (f *DedupFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	key := Normalize(urlStr)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}
