// package server exposes the search, identify, recommend and history flows over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/desertthunder/soundmatch/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// HistoryStore is the history surface the HTTP API needs.
type HistoryStore interface {
	tasks.HistoryStore
	Stats(ctx context.Context, userID string) (*models.ListeningStats, error)
}

// Options wires the engine into a [Server]. Nil components disable their routes' work
// and those routes answer 503.
type Options struct {
	Search      *tasks.SearchEngine
	Recommender *tasks.Recommender
	Identifier  *tasks.Identifier
	History     HistoryStore
	Gatherer    prometheus.Gatherer
	Logger      *log.Logger
	ResultLimit int
}

// Server is the soundmatch HTTP API.
type Server struct {
	opts   Options
	router *BasicRouter
	logger *log.Logger
}

// New creates a server with its routes and middleware registered.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{opts: opts, router: NewBasicRouter(), logger: opts.Logger}
	s.router.Use(
		RequestIDMiddleware,
		LoggingMiddleware(s.logger),
		RecoveryMiddleware(s.logger),
		MetricsMiddleware,
	)

	s.router.Handle(http.MethodGet, "/health", http.HandlerFunc(s.handleHealth))
	s.router.Handler(metricsHandler{promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})})
	s.router.Handle(http.MethodGet, "/api/search", http.HandlerFunc(s.handleSearch))
	s.router.Handle(http.MethodGet, "/api/identify", http.HandlerFunc(s.handleIdentify))
	s.router.Handle(http.MethodPost, "/api/identify", http.HandlerFunc(s.handleIdentifyAudio))
	s.router.Handle(http.MethodGet, "/api/recommend", http.HandlerFunc(s.handleRecommend))
	s.router.Handle(http.MethodGet, "/api/history", http.HandlerFunc(s.handleHistoryList))
	s.router.Handle(http.MethodPost, "/api/history", http.HandlerFunc(s.handleHistoryAdd))
	s.router.Handle(http.MethodGet, "/api/stats", http.HandlerFunc(s.handleStats))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
