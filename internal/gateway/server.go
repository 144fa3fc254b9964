package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/havenproj/haven/internal/config"
	"github.com/havenproj/haven/internal/graph"
	"github.com/havenproj/haven/internal/hooks"
	"github.com/havenproj/haven/internal/logging"
	"github.com/havenproj/haven/internal/store"
	"github.com/havenproj/haven/internal/version"
)

// Server is the Haven HTTP + WebSocket API server.
type Server struct {
	cfg      config.Config
	db       *store.DB
	engine   *graph.Engine
	log      *logging.Logger
	validate *validator.Validate
	version  string

	// Hook manager (optional — nil if not configured)
	hooks *hooks.Manager

	// Prometheus registry backing /metrics (optional)
	registry *prometheus.Registry

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// ServerOption configures the API server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithMetricsRegistry exposes the given registry at /metrics.
func WithMetricsRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.registry = reg
	}
}

// New creates a new API server.
func New(cfg config.Config, db *store.DB, engine *graph.Engine, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		engine:   engine,
		log:      log.Sub("gateway"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		version:  version.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Same-origin or non-browser clients only.
				return r.Header.Get("Origin") == ""
			},
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler builds the full HTTP handler with routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Server.Token)
}

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/approvals", s.handleApproval)
	mux.HandleFunc("GET /api/conversations/{thread}", s.handleGetConversation)

	mux.HandleFunc("POST /api/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("PUT /api/users/{id}", s.handleUpdateUser)
	mux.HandleFunc("GET /api/users/{id}/conversations", s.handleListConversations)
	mux.HandleFunc("GET /api/users/{id}/assessments", s.handleListAssessments)
	mux.HandleFunc("GET /api/users/{id}/crisis-events", s.handleListCrisisEvents)

	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// Start begins listening for connections. It blocks until the context is
// cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Bind, s.cfg.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("version", s.version).
		Bool("auth", s.cfg.Server.Token != "").
		Msg("api server starting")

	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.EventServerStart, map[string]any{
			"addr": ln.Addr().String(),
		})
	}

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down api server")
		if s.hooks != nil {
			s.hooks.Emit(context.Background(), hooks.EventServerStop, nil)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
