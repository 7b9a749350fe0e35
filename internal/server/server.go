// Package server exposes the collage pipeline over HTTP.
//
// Routes:
//
//	GET /healthz                 liveness and build info
//	GET /api/projects            project list, ?category= filters
//	GET /api/projects/{id}       one project
//	GET /api/collage             a collage; ?width=&height=&category=&seed=&format=
//	GET /images/*                static images from the image root
//	GET /metrics                 Prometheus metrics
//
// Requests that carry the same X-Collage-Client header share a supersession
// slot: a newer collage request cancels the older one, which answers 409.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/collage/pkg/pipeline"
	"github.com/matzehuels/collage/pkg/project"
)

// ClientHeader names the header that groups requests into one
// supersession slot.
const ClientHeader = "X-Collage-Client"

// Config configures a [Server].
type Config struct {
	Addr            string
	CORSOrigins     []string
	ImageRoot       string // served under /images/ when set
	ShutdownTimeout time.Duration

	// Defaults seeds the pipeline options of every collage request; query
	// parameters override it.
	Defaults pipeline.Options
}

// Server is the HTTP API.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	source  project.Source
	logger  *log.Logger
	metrics *Metrics
	slots   *slots
	router  chi.Router
}

// New builds a server. A nil metrics disables instrumentation.
func New(cfg Config, runner *pipeline.Runner, source project.Source, metrics *Metrics, logger *log.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		source:  source,
		logger:  logger,
		metrics: metrics,
		slots:   newSlots(10 * time.Minute),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", ClientHeader, RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "X-Layout-ID", "X-Cache"},
		MaxAge:         300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.handleProjects)
		r.Get("/projects/{id}", s.handleProject)
		r.Get("/collage", s.handleCollage)
	})
	if s.cfg.ImageRoot != "" {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(s.cfg.ImageRoot))))
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
