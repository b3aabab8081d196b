// Package api serves the HTTP job API used to trigger scrapes and
// publications and to poll their progress.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"course-migrator/pkg/dataset"
	"course-migrator/pkg/domain"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/progress"
	"course-migrator/pkg/service"
)

const defaultCoursesLimit = 20

// Jobs is the work the API can start and inspect
type Jobs interface {
	Scrape(ctx context.Context, url string) dataset.Result
	Publish(ctx context.Context) (domain.PublishedCourse, error)
	Status(ctx context.Context) (progress.Update, error)
	RecentCourses(ctx context.Context, limit int) ([]domain.PublishedCourse, error)
}

// Handler runs at most one job at a time in the background
type Handler struct {
	jobs Jobs
	base context.Context
	log  logger.Logger

	mu      sync.Mutex
	running string
	wg      sync.WaitGroup
}

// NewHandler creates a handler. Background jobs run under base and stop
// when it is cancelled.
func NewHandler(base context.Context, jobs Jobs, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{jobs: jobs, base: base, log: log.With(logger.Component("api"))}
}

type scrapeRequest struct {
	URL string `json:"url" binding:"required"`
}

// Scrape handles POST /api/v1/scrape
func (h *Handler) Scrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.start(c, "scrape", func(ctx context.Context) {
		h.jobs.Scrape(ctx, req.URL)
	})
}

// Publish handles POST /api/v1/publish
func (h *Handler) Publish(c *gin.Context) {
	h.start(c, "publish", func(ctx context.Context) {
		if _, err := h.jobs.Publish(ctx); err != nil {
			h.log.Warn("background publish failed", logger.Error(err))
		}
	})
}

// Status handles GET /api/v1/status
func (h *Handler) Status(c *gin.Context) {
	u, err := h.jobs.Status(c.Request.Context())
	if errors.Is(err, progress.ErrNoStatus) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

// Courses handles GET /api/v1/courses
func (h *Handler) Courses(c *gin.Context) {
	limit := defaultCoursesLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	courses, err := h.jobs.RecentCourses(c.Request.Context(), limit)
	if errors.Is(err, service.ErrArchiveDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if courses == nil {
		courses = []domain.PublishedCourse{}
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses, "count": len(courses)})
}

// Health handles GET /healthz
func (h *Handler) Health(c *gin.Context) {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "running": running})
}

// Wait blocks until the background job, if any, finishes
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) start(c *gin.Context, op string, run func(ctx context.Context)) {
	h.mu.Lock()
	if h.running != "" {
		running := h.running
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a job is already running", "running": running})
		return
	}
	h.running = op
	h.wg.Add(1)
	h.mu.Unlock()

	ctx, runID := service.WithRun(h.base)
	go func() {
		defer h.wg.Done()
		defer func() {
			h.mu.Lock()
			h.running = ""
			h.mu.Unlock()
		}()
		h.log.Info("job started", logger.String("operation", op), logger.String("run_id", runID))
		run(ctx)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "operation": op, "run_id": runID})
}
