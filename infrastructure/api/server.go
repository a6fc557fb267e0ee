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

// Timeouts bounds the phases of an HTTP connection.
type Timeouts struct {
	ReadHeader time.Duration
	// Read covers the whole request body, so it has to fit a full upload.
	Read time.Duration
	// Write of zero leaves responses unbounded. MCP sessions stream, so the
	// /api/v1 routes get their limit from chi's Timeout middleware instead.
	Write time.Duration
	Idle  time.Duration
}

// DefaultTimeouts returns the timeouts used by NewServer.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		ReadHeader: 10 * time.Second,
		Read:       5 * time.Minute,
		Write:      0,
		Idle:       120 * time.Second,
	}
}

// Server owns the listener and the root router.
type Server struct {
	router   chi.Router
	logger   *slog.Logger
	addr     string
	timeouts Timeouts

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a Server that will listen on addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	return &Server{
		router:   router,
		addr:     addr,
		logger:   logger,
		timeouts: DefaultTimeouts(),
	}
}

// WithTimeouts replaces the connection timeouts. It has no effect once the
// server is running.
func (s *Server) WithTimeouts(t Timeouts) *Server {
	s.timeouts = t
	return s
}

// Router returns the root router.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.timeouts.ReadHeader,
		ReadTimeout:       s.timeouts.Read,
		WriteTimeout:      s.timeouts.Write,
		IdleTimeout:       s.timeouts.Idle,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("http server listening", slog.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("shutting down http server")
	return srv.Shutdown(ctx)
}

// Addr returns the bound address once serving, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
