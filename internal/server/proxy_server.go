package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures [New].
type Options struct {
	Addr           string
	AllowedOrigins []string
	Logger         *log.Logger
	Metrics        *Metrics
}

// Server is the proxy HTTP server.
type Server struct {
	http   *http.Server
	router *BasicRouter
	logger *log.Logger
}

// New assembles the router: request id, recovery, logging, CORS and metrics middleware in that
// order, then the proxy routes and /metrics.
func New(opts Options, proxy *ProxyHandler) *Server {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	router := NewBasicRouter()
	router.Use(
		RequestIDMiddleware(),
		RecoverMiddleware(opts.Logger),
		LoggingMiddleware(opts.Logger),
		CORSMiddleware(opts.AllowedOrigins),
		MetricsMiddleware(metrics),
	)
	router.Handler(proxy)
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())

	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		logger: opts.Logger,
	}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("proxy listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down proxy")
	return s.http.Shutdown(shutdownCtx)
}
