// Package service exposes the scrape and publish entry points over the
// wired components.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"course-migrator/pkg/dataset"
	"course-migrator/pkg/discovery"
	"course-migrator/pkg/domain"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/metrics"
	"course-migrator/pkg/progress"
	"course-migrator/pkg/thumbnail"
	"course-migrator/pkg/urls"
)

// ErrArchiveDisabled is returned by RecentCourses when no database archive
// is configured
var ErrArchiveDisabled = errors.New("published course archive is not configured")

// Scraper builds the dataset for one course URL
type Scraper interface {
	BuildAndPersist(ctx context.Context, url string) dataset.Result
}

// Publisher creates a course in the LMS
type Publisher interface {
	Publish(ctx context.Context, course domain.CourseRecord, details []domain.Lesson) (domain.PublishedCourse, error)
}

// Discoverer lists candidate course URLs
type Discoverer interface {
	Discover(ctx context.Context, location string) ([]urls.URL, error)
}

// Retargeter attaches a thumbnail to the current course
type Retargeter interface {
	RetargetCurrent(ctx context.Context, ref string) (thumbnail.Outcome, error)
}

// LoginChecker verifies the source-site session
type LoginChecker interface {
	CheckLogin(ctx context.Context, profileURL, cookies string) (bool, error)
}

// CourseFetcher reads a course back from the LMS
type CourseFetcher interface {
	GetCourse(ctx context.Context, courseID int) (json.RawMessage, error)
}

// CourseLister reads archived publication results
type CourseLister interface {
	RecentCourses(ctx context.Context, limit int) ([]domain.PublishedCourse, error)
}

// Deps are the components a Service drives. Optional ones may be nil.
type Deps struct {
	Scraper    Scraper
	Publisher  Publisher
	Store      *dataset.Store
	Discoverer Discoverer
	Seen       urls.SeenChecker
	Supports   urls.MatcherFunc
	Thumbnails Retargeter
	Login      LoginChecker
	Cookies    string
	LMS        CourseFetcher
	Progress   progress.Reporter
	Status     progress.Source
	Courses    CourseLister
	Logger     logger.Logger
	Metrics    *metrics.Metrics
	Closers    []func(context.Context) error
}

// Service runs scrape and publish jobs
type Service struct {
	scraper    Scraper
	publisher  Publisher
	store      *dataset.Store
	discoverer Discoverer
	seen       urls.SeenChecker
	supports   urls.MatcherFunc
	thumbnails Retargeter
	login      LoginChecker
	cookies    string
	lms        CourseFetcher
	progress   progress.Reporter
	status     progress.Source
	courses    CourseLister
	log        logger.Logger
	metrics    *metrics.Metrics
	closers    []func(context.Context) error
}

// New creates a service over d
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Progress == nil {
		mem := progress.NewMemory()
		d.Progress = mem
		if d.Status == nil {
			d.Status = mem
		}
	}
	return &Service{
		scraper:    d.Scraper,
		publisher:  d.Publisher,
		store:      d.Store,
		discoverer: d.Discoverer,
		seen:       d.Seen,
		supports:   d.Supports,
		thumbnails: d.Thumbnails,
		login:      d.Login,
		cookies:    d.Cookies,
		lms:        d.LMS,
		progress:   d.Progress,
		status:     d.Status,
		courses:    d.Courses,
		log:        d.Logger.With(logger.Component("service")),
		metrics:    d.Metrics,
		closers:    d.Closers,
	}
}

// Metrics returns the metrics the service records to, or nil
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// WithRun attaches a new run id to ctx unless it already carries one
func WithRun(ctx context.Context) (context.Context, string) {
	if id := progress.RunID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return progress.WithRunID(ctx, id), id
}

// Scrape builds the dataset for url
func (s *Service) Scrape(ctx context.Context, url string) dataset.Result {
	ctx, runID := WithRun(ctx)
	s.report(ctx, progress.Update{Operation: "scrape", State: progress.StateRunning, Message: "scraping " + url})

	res := s.scraper.BuildAndPersist(ctx, url)

	state := progress.StateDone
	if res.Status != domain.StatusSuccess {
		state = progress.StateError
	}
	s.report(ctx, progress.Update{Operation: "scrape", State: state, Progress: 100, Message: res.Message})
	s.log.Info("scrape run finished",
		logger.String("run_id", runID),
		logger.String("url", url),
		logger.String("status", string(res.Status)))
	return res
}

// Publish publishes the course stored in the dataset directory
func (s *Service) Publish(ctx context.Context) (domain.PublishedCourse, error) {
	if s.store == nil {
		return domain.PublishedCourse{}, errors.New("no dataset store configured")
	}
	course, err := s.store.LoadCourse()
	if err != nil {
		return domain.PublishedCourse{}, fmt.Errorf("failed to load course: %w", err)
	}
	lessons, err := s.store.LoadLessons()
	if errors.Is(err, dataset.ErrNoDataset) {
		s.log.Warn("no lesson details found, publishing lesson stubs only")
		lessons = nil
	} else if err != nil {
		return domain.PublishedCourse{}, fmt.Errorf("failed to load lessons: %w", err)
	}
	return s.PublishCourse(ctx, course, lessons)
}

// PublishCourse publishes course with the given lesson details
func (s *Service) PublishCourse(ctx context.Context, course domain.CourseRecord, lessons []domain.Lesson) (domain.PublishedCourse, error) {
	ctx, runID := WithRun(ctx)
	res, err := s.publisher.Publish(ctx, course, lessons)
	if err != nil {
		s.log.Error("publish failed", logger.String("run_id", runID), logger.Error(err))
		return res, err
	}
	s.log.Info("publish run finished",
		logger.String("run_id", runID),
		logger.Int("course_id", res.CourseID),
		logger.Int("errors", len(res.Errors)))
	return res, nil
}

// ScrapeFeed discovers course URLs at location and scrapes each new one in
// order. max <= 0 means no limit.
func (s *Service) ScrapeFeed(ctx context.Context, location string, max int) ([]dataset.Result, error) {
	if s.discoverer == nil {
		return nil, errors.New("no discoverer configured")
	}
	ctx, runID := WithRun(ctx)

	found, err := s.discoverer.Discover(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to discover course URLs: %w", err)
	}
	candidates, err := discovery.Filter(ctx, found, s.supports, s.seen)
	if err != nil {
		return nil, fmt.Errorf("failed to filter URLs: %w", err)
	}
	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}
	s.log.Info("discovered course URLs",
		logger.String("run_id", runID),
		logger.Int("found", len(found)),
		logger.Int("selected", len(candidates)))

	results := make([]dataset.Result, 0, len(candidates))
	for _, u := range candidates {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, s.Scrape(ctx, u))
	}
	return results, nil
}

// RetargetThumbnail attaches ref to the most recently published course
func (s *Service) RetargetThumbnail(ctx context.Context, ref string) (thumbnail.Outcome, error) {
	if s.thumbnails == nil {
		return thumbnail.Outcome{}, errors.New("no thumbnail resolver configured")
	}
	return s.thumbnails.RetargetCurrent(ctx, ref)
}

// CheckLogin reports whether the configured cookies hold a live session
func (s *Service) CheckLogin(ctx context.Context) (bool, error) {
	if s.login == nil {
		return false, errors.New("no login checker configured")
	}
	if s.cookies == "" {
		return false, nil
	}
	return s.login.CheckLogin(ctx, "", s.cookies)
}

// VerifyCurrent checks that the current course pointer still resolves to a
// course in the LMS, which also proves the API credentials work
func (s *Service) VerifyCurrent(ctx context.Context) (domain.CurrentCourse, error) {
	if s.lms == nil || s.store == nil {
		return domain.CurrentCourse{}, errors.New("no LMS client configured")
	}
	current, err := s.store.LoadCurrent()
	if err != nil {
		return domain.CurrentCourse{}, err
	}
	if _, err := s.lms.GetCourse(ctx, current.CourseID); err != nil {
		return current, fmt.Errorf("failed to fetch course %d: %w", current.CourseID, err)
	}
	return current, nil
}

// Status returns the latest progress update
func (s *Service) Status(ctx context.Context) (progress.Update, error) {
	if s.status == nil {
		return progress.Update{}, progress.ErrNoStatus
	}
	return s.status.Latest(ctx)
}

// RecentCourses lists archived publication results, newest first
func (s *Service) RecentCourses(ctx context.Context, limit int) ([]domain.PublishedCourse, error) {
	if s.courses == nil {
		return nil, ErrArchiveDisabled
	}
	return s.courses.RecentCourses(ctx, limit)
}

// Close releases connections opened during wiring
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) report(ctx context.Context, u progress.Update) {
	u.RunID = progress.RunID(ctx)
	if err := s.progress.Report(ctx, u); err != nil {
		s.log.Warn("failed to report progress", logger.Error(err))
	}
}
