package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/warehouse-directory/internal/directory"
	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Directory is the lookup surface the HTTP API serves.
type Directory interface {
	CheckReadiness(ctx context.Context) error
	Lookup(id string) (domain.Warehouse, bool)
	All() []domain.Warehouse
	Status() directory.Status
	Refresh(ctx context.Context) directory.Status
}

// Server exposes the warehouse API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	dir        Directory
	refresh    *rate.Limiter
	logger     *slog.Logger
}

// NewServer creates an HTTP server. Manual refreshes are limited to
// refreshPerMinute, with a burst of one.
func NewServer(addr string, dir Directory, refreshPerMinute int, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:  r,
		dir:     dir,
		refresh: rate.NewLimiter(rate.Every(time.Minute/time.Duration(max(refreshPerMinute, 1))), 1),
		logger:  logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(dir))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/warehouses", s.handleList)
		r.Get("/warehouses/{id}", s.handleLookup)
		r.Get("/status", s.handleStatus)
		r.Post("/refresh", s.handleRefresh)
	})

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
	s.router.ServeHTTP(w, r)
}
