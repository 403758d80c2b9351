// Package server exposes the generator over HTTP with gin.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/pkg/logging"
	"github.com/sweetpotato0/keyara/pkg/metrics"
	"github.com/sweetpotato0/keyara/pkg/version"
)

// Routes served by the HTTP surface.
const (
	EndPointGenerate = "/api/gemini/generate"
	EndPointModels   = "/api/gemini/models"
	EndPointHealth   = "/health"
	EndPointVersion  = "/version"
	EndPointMetrics  = "/metrics"

	serviceName = "keyara"
)

// Generator is what the HTTP surface needs from the generator.
type Generator interface {
	middleware.Generator
	CandidateIDs() []string
}

// Server wires the gin router to a generator and a middleware chain.
type Server struct {
	gen             Generator
	chain           *middleware.MiddlewareChain
	logger          *slog.Logger
	metrics         metrics.HTTPRecorder
	metricsHandler  http.Handler
	allowedOrigins  []string
	shutdownTimeout time.Duration
	engine          *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithChain sets the middleware chain run around every generate request.
func WithChain(chain *middleware.MiddlewareChain) Option {
	return func(s *Server) {
		if chain != nil {
			s.chain = chain
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request metrics and serves handler on /metrics.
func WithMetrics(rec metrics.HTTPRecorder, handler http.Handler) Option {
	return func(s *Server) {
		if rec != nil {
			s.metrics = rec
		}
		s.metricsHandler = handler
	}
}

// WithAllowedOrigins sets the CORS allow list. "*" allows every origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown in Run.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New builds the server and its routes.
func New(gen Generator, opts ...Option) *Server {
	s := &Server{
		gen:             gen,
		chain:           middleware.NewChain(),
		logger:          logging.WithComponent("http"),
		metrics:         metrics.Noop{},
		allowedOrigins:  []string{"*"},
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestID(),
		s.cors(),
		s.observe(),
	)

	r.GET(EndPointHealth, s.health)
	r.GET(EndPointVersion, s.version)
	if s.metricsHandler != nil {
		r.GET(EndPointMetrics, gin.WrapH(s.metricsHandler))
	}

	r.POST(EndPointGenerate, s.generate)
	r.GET(EndPointModels, s.models)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (s *Server) version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get(serviceName))
}
