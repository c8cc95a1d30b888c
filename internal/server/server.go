// Package server exposes the engine over a JSON HTTP API. The server is a
// host in the engine's concurrency model: it owns one mutex and takes it
// around every engine call, mutating or not, since even reads can fill the
// view cache.
package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vitals/internal/engine"
	"vitals/internal/metrics"
)

// Server is the vitals HTTP API server.
type Server struct {
	mu      sync.Mutex
	engine  *engine.Engine
	metrics *metrics.Registry
	logger  *slog.Logger
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server around an engine. metrics may be nil; the /metrics
// endpoint then returns 404.
func New(e *engine.Engine, m *metrics.Registry, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  e,
		metrics: m,
		logger:  logger,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/pressures", s.handlePressures)
		r.Get("/gates", s.handleGates)
		r.Get("/gates/{node}", s.handleGate)
		r.Get("/history", s.handleHistory)
		r.Get("/snapshots", s.handleListSnapshots)

		r.Post("/apply", s.handleApply)
		r.Post("/propagate", s.handlePropagate)
		r.Post("/tick", s.handleTick)
		r.Post("/outcomes", s.handleOutcome)
		r.Post("/calibrate", s.handleCalibrate)
		r.Post("/snapshots", s.handleTakeSnapshot)
	})

	if s.metrics != nil {
		r.Get("/metrics", s.metrics.Handler().ServeHTTP)
	}

	s.router = r
}
