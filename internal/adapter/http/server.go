package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/reservoir-levels-service/internal/pipeline"
)

// SeriesService is the part of pipeline.Service the HTTP surface needs.
type SeriesService interface {
	Load(ctx context.Context, years int, opts pipeline.LoadOptions) (pipeline.Result, error)
	LoadWindow(ctx context.Context, months int, opts pipeline.LoadOptions) (pipeline.Result, error)
	Invalidate(years int) error
	Progress(years int) (pipeline.ProgressSnapshot, bool)
	Location() *time.Location
}

// Options configures the HTTP server.
type Options struct {
	Addr         string
	WriteTimeout time.Duration
	// DefaultYears is used when a request omits the years parameter.
	DefaultYears int
}

// Server exposes the reservoir series API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer   *http.Server
	series       SeriesService
	defaultYears int
	logger       *slog.Logger
}

// NewServer creates an HTTP server with the series API, /healthz, /readyz, and /metrics routes.
func NewServer(opts Options, series SeriesService, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}
	if opts.DefaultYears <= 0 {
		opts.DefaultYears = 1
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		series:       series,
		defaultYears: opts.DefaultYears,
		logger:       logger,
	}

	mux.HandleFunc("GET /api/v1/reservoirs", s.handleSeries)
	mux.HandleFunc("GET /api/v1/reservoirs/stream", s.handleStream)
	mux.HandleFunc("GET /api/v1/reservoirs/progress", s.handleProgress)
	mux.HandleFunc("GET /api/v1/reservoirs/catalog", handleCatalog)
	mux.HandleFunc("DELETE /api/v1/reservoirs/cache", s.handleInvalidate)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
