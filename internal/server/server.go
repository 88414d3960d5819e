// Package server exposes a queue over HTTP using gin. Pull and result
// requests are long polls: when the polling interval elapses the handler
// answers 307 Temporary Redirect to the very same URI and the client simply
// asks again.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aatumaykin/taskpoll/internal/constants"
	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/queue"
	"github.com/gin-gonic/gin"
)

// Config holds HTTP server settings.
type Config struct {
	Addr              string
	Mode              string // gin mode: debug, release, test
	ReadHeaderTimeout time.Duration
	MetricsPath       string       // empty disables the metrics route
	MetricsHandler    http.Handler // served at MetricsPath
}

// Server wraps the gin engine and the underlying http.Server.
type Server struct {
	config Config
	queue  *queue.Queue
	logger *logger.Logger
	engine *gin.Engine

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
}

// New builds the router. Nothing listens until Start.
func New(q *queue.Queue, cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	engine := gin.New()
	engine.Use(requestID(), requestLogger(log), gin.Recovery())
	engine.HandleMethodNotAllowed = true

	s := &Server{
		config: cfg,
		queue:  q,
		logger: log,
		engine: engine,
	}

	NewTaskHandler(q, log).RegisterRoutes(engine.Group(constants.RouteTask))
	engine.GET(constants.RouteHealth, s.health)
	engine.GET(constants.RouteStats, s.stats)
	if cfg.MetricsPath != "" && cfg.MetricsHandler != nil {
		engine.GET(cfg.MetricsPath, gin.WrapH(cfg.MetricsHandler))
	}

	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// Start binds the listen address and serves in the background. Errors
// after a successful bind are sent on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	s.mu.Lock()
	s.http = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("http server listening", logger.Field{Key: "addr", Value: ln.Addr().String()})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh, nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
// Parked long polls must be released first (queue.Close) or Shutdown
// waits for them until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) health(c *gin.Context) {
	st := s.queue.Stats()
	if st.Closed {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "closing",
			"timestamp": time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.queue.Stats())
}
