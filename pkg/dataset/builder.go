package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"course-migrator/pkg/content"
	"course-migrator/pkg/domain"
	"course-migrator/pkg/ledger"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/metrics"
	"course-migrator/pkg/sites"
	"course-migrator/pkg/textclean"
	"course-migrator/pkg/urls"
)

// Detector picks the site profile for a URL
type Detector interface {
	Detect(url string) (sites.Profile, error)
}

// Enricher resolves lesson details for a scraped course
type Enricher interface {
	EnrichCourse(ctx context.Context, course *domain.CourseRecord, p content.Profile, cookies string) []domain.Lesson
}

// Result is the outcome of one scrape
type Result struct {
	Status  domain.ScrapeStatus `json:"status"`
	Message string              `json:"message"`
	Course  domain.CourseRecord `json:"course"`
	Lessons []domain.Lesson     `json:"-"`
	Err     error               `json:"-"`
}

// BuilderConfig wires the builder dependencies
type BuilderConfig struct {
	Store    *Store
	Ledger   ledger.Ledger
	Detector Detector
	Fetcher  sites.Fetcher
	Enricher Enricher
	// Cookies is the session cookie header sent to profiles that need it
	Cookies string
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Builder scrapes one course URL into the dataset artifacts
type Builder struct {
	store    *Store
	ledger   ledger.Ledger
	detector Detector
	fetcher  sites.Fetcher
	enricher Enricher
	cookies  string
	log      logger.Logger
	metrics  *metrics.Metrics
	encode   func(v any) ([]byte, error)
}

// NewBuilder creates a builder
func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Builder{
		store:    cfg.Store,
		ledger:   cfg.Ledger,
		detector: cfg.Detector,
		fetcher:  cfg.Fetcher,
		enricher: cfg.Enricher,
		cookies:  cfg.Cookies,
		log:      cfg.Logger.With(logger.Component("dataset")),
		metrics:  cfg.Metrics,
		encode:   Encode,
	}
}

// BuildAndPersist scrapes rawURL and writes result.json and lesson_data.json.
// The URL is appended to the ledger only after both files are in place, so a
// failure in between never records success.
func (b *Builder) BuildAndPersist(ctx context.Context, rawURL string) Result {
	res := b.build(ctx, strings.TrimSpace(rawURL))
	res.Message = res.Status.Message()
	b.metrics.ScrapeFinished(string(res.Status))

	fields := []logger.Field{logger.String("url", rawURL), logger.String("status", string(res.Status))}
	if res.Err != nil {
		b.log.Warn("scrape finished", append(fields, logger.Error(res.Err))...)
	} else {
		b.log.Info("scrape finished", append(fields, logger.Int("lessons", len(res.Lessons)))...)
	}
	return res
}

func (b *Builder) build(ctx context.Context, pageURL string) Result {
	seen, err := b.ledger.Contains(ctx, pageURL)
	if err != nil {
		return Result{Status: domain.StatusFailedScrape, Err: fmt.Errorf("failed to check ledger: %w", err)}
	}
	if seen {
		return Result{Status: domain.StatusDuplicate}
	}

	profile, err := b.detector.Detect(pageURL)
	if err != nil {
		return Result{Status: domain.StatusUnsupportedSite, Err: err}
	}

	prev, err := b.store.ClearStale()
	if err != nil {
		return Result{Status: domain.StatusFailedSave, Err: err}
	}

	cookies := ""
	if profile.NeedsCookies() {
		cookies = b.cookies
	}
	page, err := b.fetcher.Fetch(ctx, pageURL, cookies)
	if err != nil {
		return Result{Status: domain.StatusFailedScrape, Err: fmt.Errorf("failed to fetch course page: %w", err)}
	}
	course, err := sites.ScrapeCourse(ctx, profile, pageURL, page, cookies)
	if err != nil {
		return Result{Status: domain.StatusFailedScrape, Course: course, Err: err}
	}
	if !course.HasName() {
		return Result{Status: domain.StatusFailedScrape, Course: course, Err: errors.New("course name not found")}
	}
	b.log.Info("course scraped",
		logger.String("site", profile.Name()),
		logger.String("course", course.CourseName),
		logger.Int("lessons", len(course.Lessons)))

	lessons := b.enricher.EnrichCourse(ctx, &course, profile, cookies)

	mergeThumbnail(&course, prev)
	textclean.NormalizeStrings(&course)
	textclean.NormalizeStrings(&lessons)

	stubs := course
	stubs.Lessons = course.Stubs()
	courseJSON, err := b.encode(stubs)
	if err != nil {
		return Result{Status: domain.StatusFailedJSON, Course: course, Err: fmt.Errorf("failed to encode course: %w", err)}
	}
	lessonsJSON, err := b.encode(nonNil(lessons))
	if err != nil {
		return Result{Status: domain.StatusFailedJSON, Course: course, Err: fmt.Errorf("failed to encode lessons: %w", err)}
	}

	if err := b.store.WriteFile(ResultFile, courseJSON); err != nil {
		return Result{Status: domain.StatusFailedSave, Course: course, Err: err}
	}
	if err := b.store.WriteFile(LessonsFile, lessonsJSON); err != nil {
		return Result{Status: domain.StatusFailedSave, Course: course, Err: err}
	}

	if err := b.ledger.Append(ctx, urls.Normalize(pageURL)); err != nil {
		return Result{Status: domain.StatusFailedSave, Course: course, Lessons: lessons,
			Err: fmt.Errorf("files saved but ledger append failed: %w", err)}
	}
	return Result{Status: domain.StatusSuccess, Course: course, Lessons: lessons}
}

// mergeThumbnail keeps thumbnail work from an earlier run of the same dataset
func mergeThumbnail(course *domain.CourseRecord, prev ThumbnailFields) {
	if t := strings.TrimSpace(prev.Thumbnail); t != "" && t != domain.PendingThumb && t != domain.NotFound {
		course.Thumbnail = prev.Thumbnail
	}
	if id := strings.TrimSpace(prev.ThumbnailID); id != "" && id != domain.PendingThumb {
		course.ThumbnailID = prev.ThumbnailID
	}
}

func nonNil(lessons []domain.Lesson) []domain.Lesson {
	if lessons == nil {
		return []domain.Lesson{}
	}
	return lessons
}
