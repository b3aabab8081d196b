// Package metrics holds the Prometheus instruments for scraping and publishing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name
const Namespace = "coursemigrator"

// Metrics holds all instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PagesFetched       *prometheus.CounterVec
	ScrapeResults      *prometheus.CounterVec
	LessonsCreated     prometheus.Counter
	LessonsFailed      prometheus.Counter
	AuthorFallbacks    *prometheus.CounterVec
	ThumbnailAttached  *prometheus.CounterVec
	CategoryResolution *prometheus.CounterVec
	APILatency         *prometheus.HistogramVec
}

// New creates and registers the instruments on reg, or on the default
// registerer when reg is nil
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scraper",
			Name:      "pages_fetched_total",
			Help:      "Source pages fetched, by outcome",
		}, []string{"outcome"}),
		ScrapeResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scraper",
			Name:      "results_total",
			Help:      "Scrape runs, by final status",
		}, []string{"status"}),
		LessonsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "publish",
			Name:      "lessons_created_total",
			Help:      "Lessons created in the LMS",
		}),
		LessonsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "publish",
			Name:      "lessons_failed_total",
			Help:      "Lessons the LMS rejected",
		}),
		AuthorFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "publish",
			Name:      "author_fallbacks_total",
			Help:      "Course submissions retried with a substitute author, by step",
		}, []string{"step"}),
		ThumbnailAttached: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "thumbnail",
			Name:      "attached_total",
			Help:      "Thumbnail resolutions, by attach mechanism",
		}, []string{"mechanism"}),
		CategoryResolution: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "category",
			Name:      "resolutions_total",
			Help:      "Category resolutions, by ladder step",
		}, []string{"step"}),
		APILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Target LMS API latency",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"endpoint", "code"}),
	}
}

// PageFetched counts one source page fetch
func (m *Metrics) PageFetched(outcome string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(outcome).Inc()
}

// ScrapeFinished counts one scrape result
func (m *Metrics) ScrapeFinished(status string) {
	if m == nil {
		return
	}
	m.ScrapeResults.WithLabelValues(status).Inc()
}

// LessonCreated counts one lesson outcome
func (m *Metrics) LessonCreated(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.LessonsCreated.Inc()
		return
	}
	m.LessonsFailed.Inc()
}

// AuthorFallback counts a retry with a substitute author
func (m *Metrics) AuthorFallback(step string) {
	if m == nil {
		return
	}
	m.AuthorFallbacks.WithLabelValues(step).Inc()
}

// ThumbnailResolved counts the mechanism that attached a thumbnail
func (m *Metrics) ThumbnailResolved(mechanism string) {
	if m == nil {
		return
	}
	m.ThumbnailAttached.WithLabelValues(mechanism).Inc()
}

// CategoryResolved counts the ladder step a category resolution ended on
func (m *Metrics) CategoryResolved(step string) {
	if m == nil {
		return
	}
	m.CategoryResolution.WithLabelValues(step).Inc()
}

// ObserveAPI records one LMS API call
func (m *Metrics) ObserveAPI(endpoint, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APILatency.WithLabelValues(endpoint, code).Observe(elapsed.Seconds())
}
