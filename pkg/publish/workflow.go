// Package publish turns a scraped course dataset into LMS objects: the
// course, one topic, its lessons and the thumbnail.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"course-migrator/pkg/dataset"
	"course-migrator/pkg/domain"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/metrics"
	"course-migrator/pkg/progress"
	"course-migrator/pkg/thumbnail"
	"course-migrator/pkg/tutor"
)

var (
	// ErrCourseRejected is returned when the course could not be created
	ErrCourseRejected = errors.New("course creation failed")
	// ErrTopicRejected is returned when the topic could not be created. The
	// course already exists.
	ErrTopicRejected = errors.New("topic creation failed")
	// ErrAborted is returned when the run is cancelled after the course was
	// created
	ErrAborted = errors.New("publish aborted")
)

// DefaultAuthorID is the first author tried for every object
const DefaultAuthorID = 1

// Operation is the progress operation name
const Operation = "publish"

// LMS creates course objects
type LMS interface {
	CreateCourse(ctx context.Context, req tutor.CourseRequest) (int, error)
	CreateTopic(ctx context.Context, req tutor.TopicRequest) (int, error)
	CreateLesson(ctx context.Context, req tutor.LessonRequest) (int, error)
}

// CategoryResolver maps a category name to an id
type CategoryResolver interface {
	Resolve(ctx context.Context, name string) int
}

// ThumbnailResolver attaches a thumbnail to a created course
type ThumbnailResolver interface {
	Resolve(ctx context.Context, courseID int, ref string) (thumbnail.Outcome, error)
}

// Archive keeps published course records
type Archive interface {
	SaveCourse(ctx context.Context, course *domain.PublishedCourse) error
}

// Config wires the workflow. Only LMS is required.
type Config struct {
	LMS        LMS
	Categories CategoryResolver
	Thumbnails ThumbnailResolver
	Store      *dataset.Store
	Archive    Archive
	Progress   progress.Reporter
	Logger     logger.Logger
	Metrics    *metrics.Metrics

	DefaultAuthorID    int
	AlternateAuthorIDs []int
	PlaceholderVideo   string
}

// Workflow publishes one course at a time
type Workflow struct {
	lms         LMS
	categories  CategoryResolver
	thumbnails  ThumbnailResolver
	store       *dataset.Store
	archive     Archive
	progress    progress.Reporter
	log         logger.Logger
	metrics     *metrics.Metrics
	author      int
	alternates  []int
	placeholder string
	now         func() time.Time
}

// NewWorkflow creates a workflow
func NewWorkflow(cfg Config) *Workflow {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.DefaultAuthorID <= 0 {
		cfg.DefaultAuthorID = DefaultAuthorID
	}
	if cfg.PlaceholderVideo == "" {
		cfg.PlaceholderVideo = PlaceholderVideo
	}
	return &Workflow{
		lms:         cfg.LMS,
		categories:  cfg.Categories,
		thumbnails:  cfg.Thumbnails,
		store:       cfg.Store,
		archive:     cfg.Archive,
		progress:    cfg.Progress,
		log:         cfg.Logger.With(logger.Component("publish")),
		metrics:     cfg.Metrics,
		author:      cfg.DefaultAuthorID,
		alternates:  cfg.AlternateAuthorIDs,
		placeholder: cfg.PlaceholderVideo,
		now:         time.Now,
	}
}

// Publish creates the course, its topic and lessons, then attaches the
// thumbnail. Only course and topic failures are returned as errors; lesson
// and thumbnail failures are collected in the result's Errors.
func (w *Workflow) Publish(ctx context.Context, course domain.CourseRecord, details []domain.Lesson) (domain.PublishedCourse, error) {
	result := domain.PublishedCourse{
		CourseName: course.CourseName,
		SourceURL:  course.SourceURL,
		LessonIDs:  []int{},
		Errors:     []string{},
	}
	lessons := course.Lessons
	if len(lessons) == 0 {
		lessons = details
	}
	course.Lessons = lessons

	w.report(ctx, progress.StateRunning, 5, "creating course", 0)

	categoryID := 1
	if w.categories != nil {
		categoryID = w.categories.Resolve(ctx, course.Category)
	}
	req := Coerce(BuildCourseRequest(course, categoryID), w.now())

	courseID, err := w.createCourse(ctx, req)
	if err != nil {
		w.report(ctx, progress.StateError, 5, err.Error(), 0)
		return result, err
	}
	result.CourseID = courseID
	w.log.Info("course created", logger.Int("course_id", courseID), logger.String("title", req.PostTitle))
	w.report(ctx, progress.StateRunning, 20, "course created", courseID)

	topicID, err := w.lms.CreateTopic(ctx, topicRequest(courseID, course.CourseName, w.author))
	if err != nil {
		err = fmt.Errorf("%w for course %d: %w", ErrTopicRejected, courseID, err)
		w.report(ctx, progress.StateError, 20, err.Error(), courseID)
		return result, err
	}
	result.TopicID = topicID
	w.report(ctx, progress.StateRunning, 30, "topic created", courseID)

	byLink := make(map[string]domain.Lesson, len(details))
	for _, d := range details {
		byLink[d.Link] = d
	}

	for i, stub := range lessons {
		if err := ctx.Err(); err != nil {
			return result, w.abort(ctx, &result, err)
		}
		detail, ok := byLink[stub.Link]
		if !ok {
			detail = stub
		}
		id, err := w.lms.CreateLesson(ctx, w.lessonRequest(topicID, stub, detail, course.IntroVideo))
		w.metrics.LessonCreated(err == nil)
		if err != nil {
			msg := fmt.Sprintf("lesson %d (%s): %v", i+1, stub.Title, err)
			result.Errors = append(result.Errors, msg)
			w.log.Warn("failed to create lesson",
				logger.Int("course_id", courseID),
				logger.String("title", stub.Title),
				logger.Error(err))
		} else {
			result.LessonIDs = append(result.LessonIDs, id)
		}
		w.report(ctx, progress.StateRunning, 30+60*(i+1)/len(lessons),
			fmt.Sprintf("lesson %d of %d processed", i+1, len(lessons)), courseID)
	}
	result.LessonCount = len(result.LessonIDs)

	if err := ctx.Err(); err != nil {
		return result, w.abort(ctx, &result, err)
	}
	if ref := thumbnailSource(course, details); ref != "" && w.thumbnails != nil {
		out, err := w.thumbnails.Resolve(ctx, courseID, ref)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("thumbnail: %v", err))
			w.log.Warn("failed to resolve thumbnail", logger.Int("course_id", courseID), logger.Error(err))
		} else {
			result.ThumbnailMediaID = out.MediaID
		}
	}
	if err := ctx.Err(); err != nil {
		return result, w.abort(ctx, &result, err)
	}
	w.report(ctx, progress.StateRunning, 95, "saving results", courseID)

	result.CreatedAt = w.now()
	w.persist(ctx, &result)

	w.log.Info("course published",
		logger.Int("course_id", courseID),
		logger.Int("lessons", result.LessonCount),
		logger.Int("errors", len(result.Errors)))
	w.report(ctx, progress.StateDone, 100,
		fmt.Sprintf("course %d published with %d lessons", courseID, result.LessonCount), courseID)
	return result, nil
}

// abort reports a cancelled run as an error. Nothing is persisted.
func (w *Workflow) abort(ctx context.Context, result *domain.PublishedCourse, cause error) error {
	result.LessonCount = len(result.LessonIDs)
	err := fmt.Errorf("%w for course %d after %d lessons: %w", ErrAborted, result.CourseID, result.LessonCount, cause)
	w.log.Warn("publish aborted", logger.Int("course_id", result.CourseID), logger.Error(cause))
	w.report(context.WithoutCancel(ctx), progress.StateError, 0, err.Error(), result.CourseID)
	return err
}

// createCourse submits req with the default author, then each alternate,
// then without an author. Only author rejections move down the ladder.
func (w *Workflow) createCourse(ctx context.Context, req tutor.CourseRequest) (int, error) {
	authors := make([]*int, 0, len(w.alternates)+2)
	def := w.author
	authors = append(authors, &def)
	for _, id := range w.alternates {
		alt := id
		authors = append(authors, &alt)
	}
	authors = append(authors, nil)

	var lastErr error
	for i, author := range authors {
		if i > 0 {
			step := "no_author"
			if author != nil {
				step = "author_" + strconv.Itoa(*author)
			}
			w.metrics.AuthorFallback(step)
			w.log.Warn("course rejected for author, retrying",
				logger.String("step", step), logger.Error(lastErr))
		}
		req.PostAuthor = author
		id, err := w.lms.CreateCourse(ctx, req)
		if err == nil {
			return id, nil
		}
		lastErr = err
		if !isAuthorRejection(err) {
			break
		}
	}
	return 0, fmt.Errorf("%w: %w", ErrCourseRejected, lastErr)
}

func isAuthorRejection(err error) bool {
	var apiErr *tutor.APIError
	return errors.As(err, &apiErr) && apiErr.IsValidation() && apiErr.Mentions("author")
}

func (w *Workflow) lessonRequest(topicID int, stub, detail domain.Lesson, intro string) tutor.LessonRequest {
	content := detail.Content
	if content == "" {
		content = "Lesson content for " + stub.Title
	}
	rt := domain.ParseDuration(stub.Duration)
	return tutor.LessonRequest{
		TopicID:       topicID,
		LessonTitle:   stub.Title,
		LessonContent: content,
		LessonAuthor:  w.author,
		Video: tutor.Video{
			SourceType: "youtube",
			Source:     LessonVideo(stub, detail, intro, w.placeholder),
			Runtime:    tutor.Runtime{Hours: rt.Hours, Minutes: rt.Minutes, Seconds: rt.Seconds},
		},
	}
}

func (w *Workflow) persist(ctx context.Context, result *domain.PublishedCourse) {
	if w.store != nil {
		if err := w.store.SaveCurrent(*result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("current course pointer: %v", err))
			w.log.Warn("failed to save current course pointer", logger.Error(err))
		}
		path, err := w.store.Archive(*result)
		if err != nil {
			w.log.Warn("failed to archive course", logger.Error(err))
		} else {
			w.log.Debug("course archived", logger.String("path", path))
		}
	}
	if w.archive != nil {
		if err := w.archive.SaveCourse(ctx, result); err != nil {
			w.log.Warn("failed to archive course in database", logger.Error(err))
		}
	}
}

func (w *Workflow) report(ctx context.Context, state progress.State, pct int, msg string, courseID int) {
	if w.progress == nil {
		return
	}
	err := w.progress.Report(ctx, progress.Update{
		RunID:     progress.RunID(ctx),
		Operation: Operation,
		State:     state,
		Progress:  pct,
		Message:   msg,
		CourseID:  courseID,
	})
	if err != nil {
		w.log.Warn("failed to report progress", logger.Error(err))
	}
}
