// Package server exposes the dashboard snapshot and the inbox
// read-state operations over a local HTTP API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wesm/kanbanpulse/internal/config"
	"github.com/wesm/kanbanpulse/internal/dashboard"
	"github.com/wesm/kanbanpulse/internal/db"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server that serves the REST API.
type Server struct {
	cfg       config.Config
	db        *db.DB
	assembler *dashboard.Assembler
	router    *chi.Mux
	logger    *zap.Logger
	httpSrv   *http.Server
	version   VersionInfo

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithHandlerDelay delays every timeout-wrapped handler, for
// timeout tests.
func WithHandlerDelay(d time.Duration) Option {
	return func(s *Server) { s.handlerDelay = d }
}

// New creates a new Server.
func New(
	cfg config.Config, database *db.DB,
	assembler *dashboard.Assembler, logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		db:        database,
		assembler: assembler,
		router:    chi.NewRouter(),
		logger:    logger.Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/api/v1/health", s.handleHealth)
	r.Method(http.MethodGet, "/api/v1/version",
		s.withTimeout(s.handleGetVersion))

	r.Method(http.MethodGet, "/api/v1/dashboard/overview",
		s.withTimeout(s.handleOverview))

	r.Method(http.MethodPost, "/api/v1/inbox/{id}/read",
		s.withTimeout(s.handleSetRead))
	r.Method(http.MethodPost, "/api/v1/inbox/read",
		s.withTimeout(s.handleMarkManyRead))
	r.Method(http.MethodPost, "/api/v1/inbox/read-all",
		s.withTimeout(s.handleMarkAllRead))
}

func (s *Server) handleHealth(
	w http.ResponseWriter, _ *http.Request,
) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	s.writeJSON(w, http.StatusOK, s.version)
}

// ServeHTTP lets the Server act as a standard http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start begins listening on the configured host and port. It
// returns once the listener is bound; serving continues on a
// background goroutine that reports fatal errors via errCh.
func (s *Server) Start(errCh chan<- error) (string, error) {
	addr := net.JoinHostPort(
		s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port),
	)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return ln.Addr().String(), nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
