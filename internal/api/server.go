// SPDX-License-Identifier: MIT

// Package api exposes the control plane of the settings daemon: health,
// metrics, settings CRUD, reload, remote sync, and the restart
// endpoint consumed by the tier-1 restart path.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/soleks/botvar/internal/log"
	"github.com/soleks/botvar/internal/store"
)

// Restarter triggers the tiered restart mechanism without blocking.
// Implemented by restart.Restarter.
type Restarter interface {
	Trigger(ctx context.Context)
}

// Server holds the control-plane dependencies.
type Server struct {
	store  *store.Store
	logger zerolog.Logger

	// shutdown is invoked by the /restart endpoint after the 202 is
	// written; the supervisor is expected to relaunch the process.
	shutdown context.CancelFunc

	restarter          Restarter
	rateLimitPerMinute int
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimit overrides the per-IP requests-per-minute limit.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimitPerMinute = perMinute }
}

// WithRestarter wires the tiered restarter behind POST /api/v1/restart.
func WithRestarter(r Restarter) Option {
	return func(s *Server) { s.restarter = r }
}

// New creates the control-plane server. shutdown is called when a
// restart is requested through the HTTP surface.
func New(st *store.Store, shutdown context.CancelFunc, opts ...Option) *Server {
	s := &Server{
		store:              st,
		logger:             log.WithComponent("api"),
		shutdown:           shutdown,
		rateLimitPerMinute: 120,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with the canonical middleware stack:
// recoverer outermost, then request correlation, access logging, and
// rate limiting.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(log.Middleware())
	r.Use(RateLimit(s.rateLimitPerMinute))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/settings", s.handleListSettings)
		r.Get("/settings/{key}", s.handleGetSetting)
		r.Put("/settings/{key}", s.handlePutSetting)
		r.Post("/reload", s.handleReload)
		r.Post("/sync", s.handleSync)
		r.Post("/restart", s.handleTieredRestart)
	})

	r.Get("/restart", s.handleRestart)
	r.Post("/restart", s.handleRestart)

	return r
}
