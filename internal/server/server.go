// Package server exposes a running control loop over a small JSON API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/robocmd/internal/config"
	"github.com/me/robocmd/internal/journal"
	"github.com/me/robocmd/internal/loop"
	"github.com/me/robocmd/internal/robot"
	"github.com/me/robocmd/pkg/model"
)

// Controller is the part of a loop the dashboard talks to. Every method is
// safe to call from request goroutines.
type Controller interface {
	Submit(req loop.Request) error
	Snapshot() model.SchedulerSnapshot
	Faults() uint64
}

var _ Controller = (*loop.Loop)(nil)

// Server is the robocmd dashboard API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	ctrl      Controller
	state     *robot.State
	journal   journal.Store // optional; journal routes answer 503 without it
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithJournal enables the journal routes.
func WithJournal(st journal.Store) Option {
	return func(s *Server) {
		s.journal = st
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, ctrl Controller, state *robot.State, logger *slog.Logger, opts ...Option) *Server {
	if cfg.SSEInterval <= 0 {
		cfg.SSEInterval = config.DefaultServerConfig().SSEInterval
	}
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		ctrl:      ctrl,
		state:     state,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Route("/scheduler", func(r chi.Router) {
			r.Get("/", s.handleGetScheduler)
			r.Post("/cancel-all", s.handleCancelAll)
		})
		r.Post("/commands/{name}/cancel", s.handleCancelCommand)

		r.Route("/robot", func(r chi.Router) {
			r.Post("/enable", s.handleSetMode(true))
			r.Post("/disable", s.handleSetMode(false))
		})

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", s.handleListJournal)
			r.Get("/sessions", s.handleListSessions)
		})

		r.Route("/sse", func(r chi.Router) {
			r.Get("/scheduler", s.handleSSEScheduler)
		})
	})
}
