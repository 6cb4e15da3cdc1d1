// Package server serves galleries over HTTP.
//
// Routes:
//
//	GET  /healthz               build info and catalog size
//	GET  /api/layout            layout of one page as JSON
//	GET  /api/tags              tags in the catalog
//	GET  /gallery               HTML page
//	GET  /gallery.svg           SVG wireframe
//	GET  /gallery.png           PNG contact sheet
//	POST /api/renders           store a render record
//	GET  /api/renders           list recent records
//	GET  /api/renders/{id}      fetch a record (?format=html|svg re-renders it)
//	GET  /images/*              image files under the catalog's image root
//
// Paging, filtering and layout parameters are read from the query string:
// page (zero-based), size, tag, width, all.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/pipeline"
	"github.com/matzehuels/brickwall/pkg/store"
)

// Config holds server dependencies.
type Config struct {
	Catalog *gallery.Catalog
	Runner  *pipeline.Runner
	Store   store.Store
	Logger  *log.Logger

	// CatalogPath is recorded on stored renders.
	CatalogPath string

	// Defaults seeds every request's pipeline options.
	Defaults pipeline.Options

	// ImageBase is the URL prefix images are served under. Empty means
	// "/images".
	ImageBase string

	// RecordTTL is how long POSTed records are kept.
	RecordTTL time.Duration

	// RequestTimeout bounds each request. Zero means no limit.
	RequestTimeout time.Duration
}

// Server is the gallery HTTP server.
type Server struct {
	cfg    Config
	router chi.Router
}

// New creates a server. Catalog and Runner are required.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server needs a catalog")
	}
	if cfg.Runner == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server needs a pipeline runner")
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ImageBase == "" {
		cfg.ImageBase = "/images"
	}

	s := &Server{cfg: cfg}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/gallery", s.handleArtifact(pipeline.FormatHTML))
	r.Get("/gallery.svg", s.handleArtifact(pipeline.FormatSVG))
	r.Get("/gallery.png", s.handleArtifact(pipeline.FormatPNG))

	r.Route("/api", func(r chi.Router) {
		r.Get("/layout", s.handleArtifact(pipeline.FormatJSON))
		r.Get("/tags", s.handleTags)
		r.Route("/renders", func(r chi.Router) {
			r.Post("/", s.handleCreateRender)
			r.Get("/", s.handleListRenders)
			r.Get("/{id}", s.handleGetRender)
		})
	})

	r.Handle(s.cfg.ImageBase+"/*", s.imageHandler())
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", addr, "images", s.cfg.Catalog.Len())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return nil
}
