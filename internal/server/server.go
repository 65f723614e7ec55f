package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nahidhasan98/ghe-as3-relay/internal/config"
	"github.com/nahidhasan98/ghe-as3-relay/internal/handlers"
	"github.com/nahidhasan98/ghe-as3-relay/internal/logger"
	"github.com/nahidhasan98/ghe-as3-relay/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	middleware *middleware.Middleware
	metrics    http.Handler
	log        *logger.Logger
}

// New creates a new HTTP server. metrics may be nil, in which case
// /metrics is not served.
func New(handler *handlers.Handler, metrics http.Handler, log *logger.Logger) *Server {
	return &Server{
		handler:    handler,
		middleware: middleware.New(log),
		metrics:    metrics,
		log:        log,
	}
}

// Router builds the route table with the middleware chain applied
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.middleware.Security)
	r.Use(s.middleware.Logging)
	r.Use(s.middleware.Recovery)
	r.Use(s.middleware.BodyLimit)

	r.NotFound(s.handler.NotFound)

	r.Get("/health", s.handler.HealthCheck)
	r.Get("/state", s.handler.GetState)

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", s.handler.GetSettings)
		r.Post("/", s.handler.UpdateSettings)
		r.Get("/example", s.handler.ExampleSettings)
	})

	r.Post("/webhook/github", s.handler.GitHubWebhook)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r
}

// Start starts the HTTP server. Listen errors are reported before Start
// returns; later serve errors go to errChan.
func (s *Server) Start(cfg *config.Config, errChan chan<- error) error {
	listener, err := net.Listen("tcp", cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Address(), err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	s.log.Infof("HTTP server listening on %s", listener.Addr())

	// Start server in a goroutine
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}
