// Package web serves the registry tables and the reconcile endpoint over HTTP.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/spregistry/internal/config"
	"github.com/JonMunkholm/spregistry/internal/core"
	"github.com/JonMunkholm/spregistry/internal/logging"
	"github.com/JonMunkholm/spregistry/internal/metrics"
	"github.com/JonMunkholm/spregistry/internal/web/middleware"
)

// Server is the HTTP front end of the reconciler.
type Server struct {
	service *core.Service
	metrics *metrics.Recorder
	cfg     config.ServerConfig
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server. rec may be nil, in which case /metrics is not
// mounted.
func NewServer(service *core.Service, rec *metrics.Recorder, cfg config.ServerConfig) *Server {
	s := &Server{
		service: service,
		metrics: rec,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.handleListTables)

		r.Get("/organizations", s.handleOrganizations)
		r.Get("/organizations/{orgID}", s.handleOrganization)

		r.Get("/listing", s.handleListing)
		r.Get("/listing/{spID}", s.handleListingEntry)

		r.Get("/processing-log", s.handleProcessingLog)

		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{runID}", s.handleRun)

		r.With(middleware.APIKeyAuth(s.cfg.APIKeys)).Post("/reconcile", s.handleReconcile)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", slog.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", slog.String("error", err.Error()))
	}
}
