// Package server exposes layout sessions over HTTP.
//
// A session couples a graph with a persisted layout state. Clients create
// a session by posting a graph, then advance it frame by frame or in
// larger fast-forward runs, pause and resume it, and fetch or replace the
// raw layout state.
//
// # Routes
//
//	GET    /healthz
//	GET    /metrics
//	GET    /v1/strategies
//	POST   /v1/sessions
//	GET    /v1/sessions/{id}
//	DELETE /v1/sessions/{id}
//	POST   /v1/sessions/{id}/step?n=1
//	POST   /v1/sessions/{id}/fast-forward
//	PUT    /v1/sessions/{id}/running
//	PUT    /v1/sessions/{id}/view
//	GET    /v1/sessions/{id}/state
//	PUT    /v1/sessions/{id}/state
//	DELETE /v1/sessions/{id}/state
//	GET    /v1/sessions/{id}/render/{format}
//
// Requests for the same session are serialized; different sessions run
// concurrently.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/forcelayout/pkg/observability/prom"
	"github.com/matzehuels/forcelayout/pkg/pipeline"
	"github.com/matzehuels/forcelayout/pkg/store"
)

// Default limits.
const (
	DefaultMaxSteps = 10000
	maxBodyBytes    = 8 << 20
	shutdownTimeout = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxSteps caps the steps a single request may run.
	MaxSteps int

	// Defaults supplies the strategy, viewport, seed, step count and
	// tunables for new sessions and fast-forward requests.
	Defaults pipeline.Options

	// TTL is the expiry of session records and layout states.
	TTL time.Duration

	// Metrics, when set, is served on /metrics.
	Metrics *prom.Metrics
}

// Server is the HTTP API over layout sessions.
type Server struct {
	cfg    Config
	store  store.Store
	logger *log.Logger
	locks  *keyedMutex
	router chi.Router
}

// New creates a server on st. A nil logger discards log output.
func New(st store.Store, logger *log.Logger, cfg Config) *Server {
	if st == nil {
		st = store.NewMemory()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	cfg.Defaults.SetLayoutDefaults()

	s := &Server{
		cfg:    cfg,
		store:  st,
		logger: logger,
		locks:  newKeyedMutex(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/strategies", s.handleStrategies)
		r.Post("/sessions", s.handleCreate)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/step", s.handleStep)
			r.Post("/fast-forward", s.handleFastForward)
			r.Put("/running", s.handleSetRunning)
			r.Put("/view", s.handleSetView)
			r.Get("/state", s.handleGetState)
			r.Put("/state", s.handlePutState)
			r.Delete("/state", s.handleResetState)
			r.Get("/render/{format}", s.handleRender)
		})
	})
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Addr)

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
