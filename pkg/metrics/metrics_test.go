package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ScrapeFinished("success")
	m.ScrapeFinished("success")
	m.ScrapeFinished("duplicate")
	m.LessonCreated(true)
	m.LessonCreated(false)
	m.AuthorFallback("omit")
	m.ThumbnailResolved("course_patch")
	m.CategoryResolved("created")
	m.PageFetched("ok")
	m.ObserveAPI("courses", "200", 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScrapeResults.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScrapeResults.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LessonsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LessonsFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorFallbacks.WithLabelValues("omit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.APILatency))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ScrapeFinished("success")
		m.LessonCreated(true)
		m.AuthorFallback("2")
		m.ThumbnailResolved("featured_image")
		m.CategoryResolved("default")
		m.PageFetched("error")
		m.ObserveAPI("topics", "500", time.Second)
	})
}
