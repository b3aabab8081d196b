package category

import (
	"context"
	"strings"
	"sync"

	"course-migrator/pkg/domain"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/metrics"
)

// DefaultID is used when every other step fails
const DefaultID = 1

// Store is the category persistence the resolver degrades through
type Store interface {
	FindByName(ctx context.Context, name string) (int, bool, error)
	Create(ctx context.Context, name string) (int, error)
	Any(ctx context.Context) (int, bool, error)
}

// Config wires the resolver
type Config struct {
	Store     Store
	DefaultID int
	Logger    logger.Logger
	Metrics   *metrics.Metrics
}

// Resolver maps category names to ids. It never fails: lookup, then create,
// then any existing category, then the default id.
type Resolver struct {
	store     Store
	defaultID int
	log       logger.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	cache map[string]int
}

// NewResolver creates a resolver
func NewResolver(cfg Config) *Resolver {
	if cfg.DefaultID <= 0 {
		cfg.DefaultID = DefaultID
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Resolver{
		store:     cfg.Store,
		defaultID: cfg.DefaultID,
		log:       cfg.Logger.With(logger.Component("category")),
		metrics:   cfg.Metrics,
		cache:     map[string]int{},
	}
}

// Resolve returns an id for name. Results found or created are cached for
// the life of the resolver; fallbacks are not.
func (r *Resolver) Resolve(ctx context.Context, name string) int {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	if id, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return id
	}
	r.mu.Unlock()

	id, step, cacheable := r.resolve(ctx, name)
	r.metrics.CategoryResolved(step)
	if cacheable {
		r.mu.Lock()
		r.cache[name] = id
		r.mu.Unlock()
	}
	return id
}

func (r *Resolver) resolve(ctx context.Context, name string) (int, string, bool) {
	if r.store == nil {
		r.log.Warn("no category store configured, using default", logger.Int("category_id", r.defaultID))
		return r.defaultID, "default", false
	}

	if name != "" && name != domain.NotFound {
		id, found, err := r.store.FindByName(ctx, name)
		switch {
		case err != nil:
			r.log.Warn("category lookup failed", logger.String("name", name), logger.Error(err))
		case found:
			r.log.Debug("category found", logger.String("name", name), logger.Int("category_id", id))
			return id, "found", true
		}

		id, err = r.store.Create(ctx, name)
		if err == nil {
			r.log.Info("category created", logger.String("name", name), logger.Int("category_id", id))
			return id, "created", true
		}
		r.log.Warn("category create failed", logger.String("name", name), logger.Error(err))
	}

	id, found, err := r.store.Any(ctx)
	if err == nil && found {
		r.log.Warn("falling back to existing category", logger.String("name", name), logger.Int("category_id", id))
		return id, "existing", false
	}
	if err != nil {
		r.log.Warn("category listing failed", logger.Error(err))
	}

	r.log.Warn("falling back to default category", logger.String("name", name), logger.Int("category_id", r.defaultID))
	return r.defaultID, "default", false
}
