// SPDX-License-Identifier: MIT

// Package api serves the HTTP control API: source and stream selection,
// the current M8 model, playback and format change events, health and metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fivegmag/awareapp/internal/api/middleware"
	"github.com/fivegmag/awareapp/internal/bus"
	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/health"
	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/m8"
	"github.com/fivegmag/awareapp/internal/playback"
	"github.com/fivegmag/awareapp/internal/session"
)

// Session is the part of the session controller driven over HTTP.
type Session interface {
	SelectSource(ctx context.Context, key string) error
	SelectStream(i int) error
	SelectedStream() (int, m8.ServiceListEntry, error)
	LoadStream(ctx context.Context) (m8.ServiceListEntry, error)
	Current() (m8.Model, bool)
	Streams() (m8.Model, int, bool)
	Sources() []catalog.Source
	SelectedKey() string
	Status() session.Status
	Reset(ctx context.Context) error
}

// Representations exposes the latest downstream format change.
type Representations interface {
	Handle(ev playback.DownstreamFormatChangedEvent)
	Latest() (playback.Representation, error)
}

// CatalogReloader re-reads the source catalogue from disk.
type CatalogReloader interface {
	Reload() error
}

// Deps are the collaborators of the API server.
type Deps struct {
	Session         Session
	Representations Representations
	// Bus receives format change events. When nil they are handed to
	// Representations directly.
	Bus     bus.Bus
	Catalog CatalogReloader // optional
	Health  *health.Manager

	Version        string
	RateLimit      int // requests per minute per client, 0 disables
	TracingService string
}

// Server is the control API.
type Server struct {
	deps    Deps
	logger  zerolog.Logger
	handler http.Handler
}

// New wires the routes of the control API.
func New(deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = health.NewManager(deps.Version)
	}
	s := &Server{deps: deps, logger: log.WithComponent("api")}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HTTPServer returns an http.Server for addr with conservative timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Selecting a remote source waits for the M8 fetch.
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.deps.TracingService,
		EnableLogging:         true,
		RateLimitPerMinute:    s.deps.RateLimit,
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/sources", s.handleListSources)
		r.Put("/sources/selected", s.handleSelectSource)
		r.Post("/sources/reload", s.handleReloadSources)

		r.Get("/m8", s.handleGetModel)

		r.Get("/streams", s.handleListStreams)
		r.Get("/streams/selected", s.handleGetSelectedStream)
		r.Put("/streams/selected", s.handleSelectStream)

		r.Post("/playback", s.handleLoadStream)
		r.Delete("/playback", s.handleReset)
		r.Post("/playback/events/format", s.handleFormatEvent)
		r.Get("/playback/representation", s.handleRepresentation)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed on "+r.URL.Path)
	})
	return r
}
