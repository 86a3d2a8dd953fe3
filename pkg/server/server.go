package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/time/rate"
)

const (
	defaultName    = "rpctl"
	defaultVersion = "dev"
)

// route is an API handler registered through WithHandler.
type route struct {
	pattern string
	handler http.Handler
}

// Server hosts the system endpoints and the registered API routes.
type Server struct {
	name    string
	version string
	config  *Config
	routes  []route
	limiter *rate.Limiter
	handler http.Handler

	mu    sync.RWMutex
	ready bool
}

// Option configures a Server.
type Option func(*Server)

// WithName sets the service name reported on the root route.
func WithName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

// WithVersion sets the version reported on the root route.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithHandler registers an API handler under a ServeMux pattern such as
// "GET /v1/pods/{id}". API handlers get the full middleware chain.
func WithHandler(pattern string, h http.HandlerFunc) Option {
	return func(s *Server) {
		s.routes = append(s.routes, route{pattern: pattern, handler: h})
	}
}

// New builds a Server. Routes are fixed once New returns.
func New(opts ...Option) *Server {
	s := &Server{
		name:    defaultName,
		version: defaultVersion,
		config:  DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}

	burst := s.config.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	limit := s.config.RateLimit
	if limit <= 0 {
		limit = rate.Inf
	}
	s.limiter = rate.NewLimiter(limit, burst)
	s.handler = s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// SetReady flips the readiness reported by /ready.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// IsReady reports the current readiness.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Routes returns the registered API patterns, sorted.
func (s *Server) Routes() []string {
	out := make([]string, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, r.pattern)
	}
	sort.Strings(out)
	return out
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.SetReady(true)
	notify(daemon.SdNotifyReady)
	slog.Info("server started",
		"name", s.name,
		"version", s.version,
		"address", ln.Addr().String(),
		"routes", len(s.routes))

	select {
	case err := <-errCh:
		s.SetReady(false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.SetReady(false)
	notify(daemon.SdNotifyStopping)
	slog.Info("shutting down server", "timeout", s.config.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		slog.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		slog.Debug("sd_notify sent", "state", state)
	}
}
