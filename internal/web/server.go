// Package web provides the HTTP API for ledger imports and queries.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/ledgerrecon/internal/config"
	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/web/middleware"
)

// Server is the HTTP server for the ledger import API.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server for service configured by cfg.
func NewServer(service *core.Service, cfg *config.Config) (*Server, error) {
	s := &Server{
		service:  service,
		cfg:      cfg,
		validate: newValidator(),
		router:   chi.NewRouter(),
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// setupRoutes configures middleware and routes.
func (s *Server) setupRoutes() error {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	r.Use(securityHeaders)

	var general, imports func(http.Handler) http.Handler
	if s.cfg.Rate.Enabled {
		gl, err := middleware.NewLimiter(s.cfg.Rate.RequestsPerMinute)
		if err != nil {
			return err
		}
		il, err := middleware.NewLimiter(s.cfg.Rate.ImportLimit)
		if err != nil {
			return err
		}
		general = middleware.RateLimit(gl, s.respondError)
		imports = middleware.RateLimit(il, s.respondError)
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.Security.RequireAPIKey {
			r.Use(middleware.APIKeyAuth(s.cfg.Security.APIKeys, s.respondError))
		}
		if general != nil {
			r.Use(general)
		}

		r.Get("/profiles", s.handleProfiles)

		r.Route("/clients/{clientID}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if imports != nil {
					r.Use(imports)
				}
				r.Post("/imports", s.handleImport)
			})
			r.Get("/entries", s.handleEntries)
			r.Delete("/entries", s.handleClear)
			r.Get("/indicators", s.handleIndicators)
			r.Get("/export", s.handleExport)
		})
	})
	return nil
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with status. Encoding errors are logged since
// headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "path", r.URL.Path, "error", err)
	}
}

// attachment sets headers for a file download.
func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Generated-At", time.Now().UTC().Format(time.RFC3339))
}
