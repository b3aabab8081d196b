// Package progress publishes the state of long-running scrape and publish
// jobs so a separate caller can poll them.
package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"course-migrator/pkg/logger"
)

// State of a job
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateError   State = "error"
)

// ErrNoStatus is returned by Latest before any update was reported
var ErrNoStatus = errors.New("no status reported")

// Update is one progress record
type Update struct {
	RunID     string    `json:"run_id"`
	Operation string    `json:"operation"`
	State     State     `json:"state"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	CourseID  int       `json:"course_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reporter receives progress updates. Report failures are logged by callers
// and never abort the job.
type Reporter interface {
	Report(ctx context.Context, u Update) error
}

// Source returns the most recent update
type Source interface {
	Latest(ctx context.Context) (Update, error)
}

func stamp(u Update) Update {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now().UTC()
	}
	if u.Progress < 0 {
		u.Progress = 0
	}
	if u.Progress > 100 {
		u.Progress = 100
	}
	return u
}

// Memory keeps the latest update in process
type Memory struct {
	mu      sync.RWMutex
	latest  Update
	set     bool
	history []Update
}

// NewMemory creates an in-process reporter
func NewMemory() *Memory {
	return &Memory{}
}

// Report stores u
func (m *Memory) Report(_ context.Context, u Update) error {
	u = stamp(u)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = u
	m.set = true
	m.history = append(m.history, u)
	return nil
}

// Latest returns the last stored update
func (m *Memory) Latest(context.Context) (Update, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return Update{}, ErrNoStatus
	}
	return m.latest, nil
}

// History returns every update reported so far
func (m *Memory) History() []Update {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Update, len(m.history))
	copy(out, m.history)
	return out
}

// Log writes updates to a logger
type Log struct {
	log logger.Logger
}

// NewLog creates a reporter that only logs
func NewLog(log logger.Logger) *Log {
	if log == nil {
		log = logger.NewNop()
	}
	return &Log{log: log.With(logger.Component("progress"))}
}

// Report logs u
func (l *Log) Report(_ context.Context, u Update) error {
	l.log.Info(u.Message,
		logger.String("run_id", u.RunID),
		logger.String("operation", u.Operation),
		logger.String("state", string(u.State)),
		logger.Int("progress", u.Progress),
		logger.Int("course_id", u.CourseID))
	return nil
}

// Multi fans an update out to several reporters, returning the first error
type Multi []Reporter

// Report forwards u to every reporter
func (m Multi) Report(ctx context.Context, u Update) error {
	var first error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, u); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type runIDKey struct{}

// WithRunID attaches a run id to ctx so nested components report under it
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the run id attached to ctx, or ""
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
