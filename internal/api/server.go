// Package api serves post rendering over HTTP.
//
// Routes:
//
//	POST /v1/render            render a request, JSON or image/png
//	GET  /v1/templates         list templates, filtered by contentType and business
//	GET  /v1/templates/{id}    one template definition
//	GET  /v1/fonts             families known to the font registry
//	GET  /healthz              liveness and build information
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with a
// status derived from the error code.
package api

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/postcraft/pkg/pipeline"
	"github.com/matzehuels/postcraft/pkg/templates"
)

const (
	defaultMaxBody = 2 << 20
	defaultTimeout = 30 * time.Second
	shutdownGrace  = 10 * time.Second
)

// Server routes API requests to a renderer.
type Server struct {
	renderer  *pipeline.Renderer
	templates *templates.Registry
	logger    *log.Logger
	maxBody   int64
	timeout   time.Duration
	rngMu     sync.Mutex // guards rng
	rng       *rand.Rand
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBody bounds request bodies.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithTimeout bounds the time spent on one request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRand sets the source used when a request asks for a random
// template. Handlers share it under a lock. Without it the global source
// is used.
func WithRand(rng *rand.Rand) Option {
	return func(s *Server) { s.rng = rng }
}

// New creates a Server around r. Templates are taken from the renderer.
func New(r *pipeline.Renderer, opts ...Option) *Server {
	s := &Server{
		renderer:  r,
		templates: r.Templates(),
		logger:    log.Default(),
		maxBody:   defaultMaxBody,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(s.timeout))
		api.Post("/render", s.render)
		api.Get("/templates", s.listTemplates)
		api.Get("/templates/{id}", s.getTemplate)
		api.Get("/fonts", s.listFonts)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
