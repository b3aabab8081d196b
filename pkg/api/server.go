package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"course-migrator/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Config holds server settings
type Config struct {
	Addr string
	// Gatherer backs /metrics; nil serves the default registry
	Gatherer prometheus.Gatherer
	Debug    bool
	Logger   logger.Logger
}

// Server is the HTTP job API
type Server struct {
	handler *Handler
	router  *gin.Engine
	server  *http.Server
	log     logger.Logger
}

// NewServer builds the router. Jobs started through the API run under base.
func NewServer(base context.Context, cfg Config, jobs Jobs) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := NewHandler(base, jobs, cfg.Logger)
	router := gin.New()
	router.Use(gin.Recovery(), loggerMiddleware(cfg.Logger))

	router.GET("/healthz", h.Health)
	metricsHandler := promhttp.Handler()
	if cfg.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	}
	router.GET("/metrics", gin.WrapH(metricsHandler))

	v1 := router.Group("/api/v1")
	v1.POST("/scrape", h.Scrape)
	v1.POST("/publish", h.Publish)
	v1.GET("/status", h.Status)
	v1.GET("/courses", h.Courses)

	return &Server{
		handler: h,
		router:  router,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: cfg.Logger.With(logger.Component("api")),
	}
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine { return s.router }

// Run serves until ctx is cancelled, then shuts down and waits for the
// running job
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", logger.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.handler.Wait()
	s.log.Info("HTTP server stopped")
	return nil
}

func loggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			log.Error("HTTP request with errors", append(fields, logger.String("errors", c.Errors.String()))...)
			return
		}
		log.Debug("HTTP request", fields...)
	}
}
