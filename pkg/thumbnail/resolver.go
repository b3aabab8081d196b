package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"course-migrator/pkg/dataset"
	"course-migrator/pkg/httpclient"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/metrics"
)

// ErrAttachFailed is returned when every attach mechanism failed. The media
// upload itself succeeded.
var ErrAttachFailed = errors.New("failed to attach thumbnail")

var errNotConfigured = errors.New("not configured")

// Attach mechanism names, in the order they are tried
const (
	MechanismFeaturedImage = "featured_image"
	MechanismPostMeta      = "post_meta"
	MechanismCoursePatch   = "course_patch"
)

// Downloader fetches the image bytes
type Downloader interface {
	FetchBytes(ctx context.Context, url, cookies string) (*httpclient.Response, error)
}

// Uploader stores an image in the media library
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (int, error)
}

// FeaturedImageSetter attaches media through the CMS post API
type FeaturedImageSetter interface {
	SetFeaturedImage(ctx context.Context, postID, mediaID int) error
}

// MetaWriter attaches media by writing post meta
type MetaWriter interface {
	UpsertThumbnail(ctx context.Context, postID, mediaID int) error
}

// CoursePatcher attaches media through the LMS course API
type CoursePatcher interface {
	PatchCourse(ctx context.Context, courseID int, fields map[string]any) error
}

// Attempt is one attach mechanism try
type Attempt struct {
	Mechanism string `json:"mechanism"`
	Error     string `json:"error,omitempty"`
}

// Outcome describes a thumbnail resolution
type Outcome struct {
	ImageURL  string    `json:"image_url"`
	MediaID   int       `json:"media_id"`
	Mechanism string    `json:"mechanism,omitempty"`
	Attempts  []Attempt `json:"attempts"`
}

// Config wires the resolver
type Config struct {
	Downloader    Downloader
	Uploader      Uploader
	FeaturedImage FeaturedImageSetter
	Meta          MetaWriter
	Patcher       CoursePatcher
	// Store receives the resolved thumbnail fields; optional
	Store   *dataset.Store
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Resolver downloads a thumbnail, uploads it and attaches it to a course
type Resolver struct {
	downloader Downloader
	uploader   Uploader
	featured   FeaturedImageSetter
	meta       MetaWriter
	patcher    CoursePatcher
	store      *dataset.Store
	log        logger.Logger
	metrics    *metrics.Metrics
}

// NewResolver creates a resolver
func NewResolver(cfg Config) *Resolver {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Resolver{
		downloader: cfg.Downloader,
		uploader:   cfg.Uploader,
		featured:   cfg.FeaturedImage,
		meta:       cfg.Meta,
		patcher:    cfg.Patcher,
		store:      cfg.Store,
		log:        cfg.Logger.With(logger.Component("thumbnail")),
		metrics:    cfg.Metrics,
	}
}

// Resolve attaches the image referenced by ref to courseID. Mechanisms are
// tried in order and the first success wins.
func (r *Resolver) Resolve(ctx context.Context, courseID int, ref string) (Outcome, error) {
	imageURL, err := Canonicalize(ref)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{ImageURL: imageURL}

	resp, err := r.downloader.FetchBytes(ctx, imageURL, "")
	if err != nil {
		return out, fmt.Errorf("failed to download thumbnail: %w", err)
	}
	contentType := resp.ContentType
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(resp.Body)
	}

	filename := fmt.Sprintf("thumbnail_%d.jpg", courseID)
	mediaID, err := r.uploader.Upload(ctx, filename, contentType, resp.Body)
	if err != nil {
		return out, fmt.Errorf("failed to upload thumbnail: %w", err)
	}
	out.MediaID = mediaID

	mechanisms := []struct {
		name   string
		attach func() error
	}{
		{MechanismFeaturedImage, func() error {
			if r.featured == nil {
				return errNotConfigured
			}
			return r.featured.SetFeaturedImage(ctx, courseID, mediaID)
		}},
		{MechanismPostMeta, func() error {
			if r.meta == nil {
				return errNotConfigured
			}
			return r.meta.UpsertThumbnail(ctx, courseID, mediaID)
		}},
		{MechanismCoursePatch, func() error {
			if r.patcher == nil {
				return errNotConfigured
			}
			return r.patcher.PatchCourse(ctx, courseID, map[string]any{"thumbnail_id": mediaID})
		}},
	}

	var errs []error
	for _, m := range mechanisms {
		err := m.attach()
		if err == nil {
			out.Attempts = append(out.Attempts, Attempt{Mechanism: m.name})
			out.Mechanism = m.name
			break
		}
		out.Attempts = append(out.Attempts, Attempt{Mechanism: m.name, Error: err.Error()})
		errs = append(errs, fmt.Errorf("%s: %w", m.name, err))
		r.log.Warn("thumbnail attach failed",
			logger.String("mechanism", m.name),
			logger.Int("course_id", courseID),
			logger.Error(err))
	}
	if out.Mechanism == "" {
		return out, fmt.Errorf("%w: %w", ErrAttachFailed, errors.Join(errs...))
	}

	r.metrics.ThumbnailResolved(out.Mechanism)
	r.log.Info("thumbnail attached",
		logger.Int("course_id", courseID),
		logger.Int("media_id", mediaID),
		logger.String("mechanism", out.Mechanism))

	r.patchDataset(imageURL, mediaID)
	return out, nil
}

func (r *Resolver) patchDataset(imageURL string, mediaID int) {
	if r.store == nil {
		return
	}
	err := r.store.PatchThumbnail(imageURL, strconv.Itoa(mediaID))
	if err != nil && !errors.Is(err, dataset.ErrNoDataset) {
		r.log.Warn("failed to record thumbnail in dataset", logger.Error(err))
	}
}

// RetargetCurrent resolves ref for the course named by the current course
// pointer
func (r *Resolver) RetargetCurrent(ctx context.Context, ref string) (Outcome, error) {
	if r.store == nil {
		return Outcome{}, errors.New("no dataset store configured")
	}
	current, err := r.store.LoadCurrent()
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load current course: %w", err)
	}
	if current.CourseID <= 0 {
		return Outcome{}, fmt.Errorf("current course pointer has no course id")
	}
	return r.Resolve(ctx, current.CourseID, ref)
}
