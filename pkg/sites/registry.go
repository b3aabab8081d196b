package sites

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"course-migrator/pkg/domain"
	"course-migrator/pkg/logger"
)

// ErrUnsupportedSite is returned when no profile matches a URL. It is terminal.
var ErrUnsupportedSite = errors.New("unsupported site")

// DefaultMaxPages caps lesson listing pagination
const DefaultMaxPages = 10

// Fetcher retrieves a page body as UTF-8 text
type Fetcher interface {
	Fetch(ctx context.Context, url, cookies string) (string, error)
}

// Profile knows how to extract one source site's course metadata and lessons
type Profile interface {
	Name() string
	Matches(url string) bool
	// NeedsCookies reports whether pages must be fetched with the session cookies
	NeedsCookies() bool
	// ContentLabels are the headings that introduce the supplementary lesson content iframe
	ContentLabels() []string
	ExtractCourse(pageURL, html string) (domain.CourseRecord, error)
	ExtractLessons(ctx context.Context, pageURL, html, cookies string) ([]domain.Lesson, error)
}

// Registry maps a URL to the first matching profile
type Registry struct {
	profiles []Profile
}

// Config holds registry settings
type Config struct {
	Fetcher  Fetcher
	MaxPages int
	Logger   logger.Logger
}

// NewRegistry creates a registry with the built-in profiles in match order:
// mindluster, m3aarf, new_site
func NewRegistry(cfg Config) *Registry {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	p := paginator{fetcher: cfg.Fetcher, maxPages: cfg.MaxPages, log: cfg.Logger.With(logger.Component("sites"))}

	return NewRegistryWithProfiles(
		NewMindluster(p),
		NewM3aarf(p),
		NewNewSite(p),
	)
}

// NewRegistryWithProfiles creates a registry over an explicit profile list
func NewRegistryWithProfiles(profiles ...Profile) *Registry {
	return &Registry{profiles: profiles}
}

// Detect returns the first profile whose domain patterns match url
func (r *Registry) Detect(url string) (Profile, error) {
	for _, p := range r.profiles {
		if p.Matches(url) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSite, url)
}

// Supports reports whether any profile matches url
func (r *Registry) Supports(url string) bool {
	_, err := r.Detect(url)
	return err == nil
}

// Names lists the registered profile names in match order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for _, p := range r.profiles {
		names = append(names, p.Name())
	}
	return names
}

// domainMatcher is embedded by profiles that match on domain regexes
type domainMatcher struct {
	patterns []*regexp.Regexp
}

func newDomainMatcher(patterns ...string) domainMatcher {
	m := domainMatcher{}
	for _, p := range patterns {
		m.patterns = append(m.patterns, regexp.MustCompile(p))
	}
	return m
}

// Matches reports whether any domain pattern matches url
func (m domainMatcher) Matches(url string) bool {
	for _, re := range m.patterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}
