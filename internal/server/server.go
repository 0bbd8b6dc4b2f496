package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/jhaveripatric/webagents/internal/auth"
	"github.com/jhaveripatric/webagents/internal/config"
	"github.com/jhaveripatric/webagents/internal/manifest"
	"github.com/jhaveripatric/webagents/internal/middleware"
	"github.com/jhaveripatric/webagents/internal/router"
)

// Server publishes a site's webagents.md over HTTP.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
	loader *manifest.Loader
	doc    atomic.Pointer[router.Document]
	router chi.Router
}

// New creates a server and loads the configured manifest.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger.With().Str("component", "server").Logger(),
		loader: manifest.NewLoader("."),
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	var verifier middleware.TokenVerifier
	if jwtCfg := cfg.Site.Auth.JWT; jwtCfg != nil {
		v, err := auth.NewVerifier(*jwtCfg)
		if err != nil {
			return nil, fmt.Errorf("load jwt keys: %w", err)
		}
		verifier = v
	}

	s.router = s.buildRouter(verifier)
	return s, nil
}

// Current implements router.Source.
func (s *Server) Current() *router.Document {
	return s.doc.Load()
}

// Reload re-reads the manifest file. On failure the previous manifest
// stays published.
func (s *Server) Reload() error {
	path := s.cfg.Site.ManifestPath
	m, err := s.loader.Load(path)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	doc := router.NewDocument(m, s.loader.Resolve(path))
	s.doc.Store(doc)

	s.logger.Info().
		Str("name", m.Name).
		Str("path", doc.Path).
		Int("tools", len(m.Tools)).
		Msg("Loaded manifest")
	for _, w := range doc.Warnings {
		s.logger.Warn().Str("path", doc.Path).Msg(w)
	}
	return nil
}

func (s *Server) buildRouter(verifier middleware.TokenVerifier) chi.Router {
	r := chi.NewRouter()

	// Middleware stack (order matters)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(cors.Handler(middleware.CORSOptions(s.cfg.Site.CORS.AllowedOrigins)))

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readyHandler)

	manifestRoutes := router.NewBuilder(s, router.Options{
		ServePath: s.cfg.Site.ServePath,
		PageTitle: s.cfg.Site.PageTitle,
		Verifier:  verifier,
	}, s.logger).Build()
	r.Mount("/", manifestRoutes)

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	doc := s.Current()
	if doc == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "not_ready", "No manifest loaded", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ready",
		"manifest":  doc.Manifest.Name,
		"tools":     len(doc.Manifest.Tools),
		"loaded_at": doc.LoadedAt,
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully. With
// site.watch set the manifest is reloaded when its file changes.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Site.Watch {
		w, err := NewWatcher(s.loader.Resolve(s.cfg.Site.ManifestPath), s.logger, func() {
			if err := s.Reload(); err != nil {
				s.logger.Error().Err(err).Msg("Reload failed, keeping previous manifest")
			}
		})
		if err != nil {
			return fmt.Errorf("watch manifest: %w", err)
		}
		defer w.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Site.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting webagents server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
