package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Server represents the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
	mu         *sync.Mutex
	closed     *bool
}

// NewServer creates a new API Server.
func NewServer(addr string, logger *slog.Logger) Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	// Apply standard middleware.
	// Note: Timeout is NOT applied here because streaming endpoints (file
	// streams and MCP) are incompatible with chi's Timeout middleware.
	// Request-level timeouts are applied per route group in mountRoutes.
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	return Server{
		router: router,
		addr:   addr,
		logger: logger,
		mu:     &sync.Mutex{},
		closed: new(bool),
	}
}

// Router returns the chi router for registering routes.
func (s Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if *s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No write deadline: a range stream lasts as long as the client reads.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", slog.String("addr", ln.Addr().String()))
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	*s.closed = true
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down HTTP server")
	return httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s Server) Addr() string {
	return s.addr
}
