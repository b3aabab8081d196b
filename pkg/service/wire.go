package service

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"course-migrator/pkg/category"
	"course-migrator/pkg/config"
	"course-migrator/pkg/content"
	"course-migrator/pkg/dataset"
	"course-migrator/pkg/db"
	"course-migrator/pkg/discovery"
	"course-migrator/pkg/httpclient"
	"course-migrator/pkg/ledger"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/metrics"
	"course-migrator/pkg/progress"
	"course-migrator/pkg/publish"
	"course-migrator/pkg/sites"
	"course-migrator/pkg/thumbnail"
	"course-migrator/pkg/tutor"
	"course-migrator/pkg/wordpress"
)

// FromConfig connects every backend named in cfg and returns a ready
// service. reg may be nil to disable metrics. Call Close when done.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (svc *Service, err error) {
	if log == nil {
		log = logger.NewNop()
	}
	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	var closers []func(context.Context) error
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i](ctx)
			}
		}
	}()

	fetcher := httpclient.New(httpclient.Config{
		Type:              httpclient.BrowserClient,
		Timeout:           cfg.Scraper.Timeout,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Logger:            log,
		Metrics:           m,
	})

	// Sitemaps and feeds are fetched with the curl profile
	feeds := httpclient.New(httpclient.Config{
		Type:              httpclient.CloudflareClient,
		Timeout:           cfg.Scraper.Timeout,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Logger:            log,
		Metrics:           m,
	})

	cookies := cfg.Scraper.Cookies
	if cookies == "" && cfg.Scraper.CookiesFile != "" {
		cookies, err = httpclient.LoadCookieHeader(cfg.Scraper.CookiesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load cookies: %w", err)
		}
	}

	registry := sites.NewRegistry(sites.Config{Fetcher: fetcher, MaxPages: cfg.Scraper.MaxPages, Logger: log})
	store := dataset.NewStore(cfg.Storage.Dir)

	led, closeLedger, err := openLedger(ctx, cfg.Storage, store)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeLedger)

	builder := dataset.NewBuilder(dataset.BuilderConfig{
		Store:    store,
		Ledger:   led,
		Detector: registry,
		Fetcher:  fetcher,
		Enricher: content.NewEnricher(content.Config{Fetcher: fetcher, Logger: log}),
		Cookies:  cookies,
		Logger:   log,
		Metrics:  m,
	})

	lms := tutor.New(tutor.Config{
		BaseURL: cfg.API.BaseURL,
		Key:     cfg.API.Key,
		Secret:  cfg.API.Secret,
		Timeout: cfg.API.Timeout,
		Logger:  log,
		Metrics: m,
	})

	wp := wordpress.RESTConfig{
		BaseURL:  cfg.WordPress.BaseURL,
		Username: cfg.WordPress.Username,
		Password: cfg.WordPress.AppPassword,
		PostType: cfg.WordPress.PostType,
		Timeout:  cfg.API.Timeout,
		Logger:   log,
	}
	media := wordpress.NewMediaREST(wp)

	var (
		meta  thumbnail.MetaWriter
		terms category.Store = wordpress.NewTermsREST(wp)
	)
	if cfg.WordPress.MySQLDSN != "" {
		mysql := db.NewMySQLClient(db.MySQLConfig{DSN: cfg.WordPress.MySQLDSN})
		if err := mysql.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to wordpress database: %w", err)
		}
		closers = append(closers, func(context.Context) error { return mysql.Close() })
		meta = wordpress.NewMetaDB(mysql, cfg.WordPress.TablePrefix)
		if cfg.WordPress.CategoryStore == "db" {
			terms = wordpress.NewTermsDB(mysql, cfg.WordPress.TablePrefix)
		}
	}

	categories := category.NewResolver(category.Config{
		Store:     terms,
		DefaultID: cfg.Publish.DefaultCategoryID,
		Logger:    log,
		Metrics:   m,
	})

	thumbs := thumbnail.NewResolver(thumbnail.Config{
		Downloader:    fetcher,
		Uploader:      media,
		FeaturedImage: media,
		Meta:          meta,
		Patcher:       lms,
		Store:         store,
		Logger:        log,
		Metrics:       m,
	})

	var (
		archive publish.Archive
		courses CourseLister
	)
	if cfg.Mongo.URI != "" {
		mongo := db.NewClient(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err := mongo.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		closers = append(closers, mongo.Close)
		archive, courses = mongo, mongo
	}

	mem := progress.NewMemory()
	reporters := progress.Multi{mem, progress.NewLog(log)}
	var status progress.Source = mem
	if cfg.Redis.Address != "" {
		client, err := progress.NewRedisClient(ctx, progress.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		closers = append(closers, func(context.Context) error { return client.Close() })
		r := progress.NewRedis(client, cfg.Redis.StatusKey, progress.DefaultTTL)
		reporters = append(reporters, r)
		status = r
	}

	workflow := publish.NewWorkflow(publish.Config{
		LMS:                lms,
		Categories:         categories,
		Thumbnails:         thumbs,
		Store:              store,
		Archive:            archive,
		Progress:           reporters,
		Logger:             log,
		Metrics:            m,
		DefaultAuthorID:    cfg.Publish.DefaultAuthorID,
		AlternateAuthorIDs: cfg.Publish.AlternateAuthorIDs,
		PlaceholderVideo:   cfg.Publish.PlaceholderVideo,
	})

	return New(Deps{
		Scraper:    builder,
		Publisher:  workflow,
		Store:      store,
		Discoverer: discovery.New(feeds, log),
		Seen:       led,
		Supports:   registry.Supports,
		Thumbnails: thumbs,
		Login:      fetcher,
		Cookies:    cookies,
		LMS:        lms,
		Progress:   reporters,
		Status:     status,
		Courses:    courses,
		Logger:     log,
		Metrics:    m,
		Closers:    closers,
	}), nil
}

// openLedger connects the processed URL ledger backend named in cfg
func openLedger(ctx context.Context, cfg config.StorageConfig, store *dataset.Store) (ledger.Ledger, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Ledger {
	case "", "file":
		return ledger.NewFile(store.Path(dataset.LedgerFile)), noop, nil

	case "sqlite":
		client := db.NewSQLiteClient(cfg.SQLitePath)
		if err := client.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
		}
		return sqlLedger(ctx, client, func(context.Context) error { return client.Close() })

	case "postgres":
		client := db.NewPostgresClient(db.PostgresConfig{DSN: cfg.PostgresDSN})
		if err := client.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres ledger: %w", err)
		}
		return sqlLedger(ctx, client, func(context.Context) error { return client.Close() })

	case "supabase":
		client := db.NewSupabaseClient(db.SupabaseConfig{SupabaseURL: cfg.SupabaseURL, SupabaseKey: cfg.SupabaseKey})
		if err := client.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to supabase: %w", err)
		}
		return ledger.NewSupabase(client.SDK()), func(context.Context) error { return client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownLedger, cfg.Ledger)
	}
}

func sqlLedger(ctx context.Context, provider ledger.Provider, closer func(context.Context) error) (ledger.Ledger, func(context.Context) error, error) {
	l := ledger.NewSQL(provider)
	if err := l.EnsureSchema(ctx); err != nil {
		_ = closer(ctx)
		return nil, nil, fmt.Errorf("failed to prepare ledger schema: %w", err)
	}
	return l, closer, nil
}
