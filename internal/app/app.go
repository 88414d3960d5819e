// Package app wires the queue, its HTTP transport, metrics, the janitor
// and an optional embedded worker pool, and manages their lifecycle.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/aatumaykin/taskpoll/internal/config"
	"github.com/aatumaykin/taskpoll/internal/janitor"
	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/queue"
	"github.com/aatumaykin/taskpoll/internal/server"
	"github.com/aatumaykin/taskpoll/internal/version"
	"github.com/aatumaykin/taskpoll/internal/workers"
	"github.com/prometheus/client_golang/prometheus"
)

// App represents the server-side application.
type App struct {
	config *config.Config
	logger *logger.Logger

	queue    *queue.Queue
	registry *prometheus.Registry
	server   *server.Server
	janitor  *janitor.Janitor

	// Embedded worker pool, nil unless worker.embedded is set
	workerPool *workers.WorkerPool

	serverErr <-chan error

	mu          sync.Mutex
	initialized bool
	started     bool
}

// New creates a new App. Components are built by Initialize.
func New(cfg *config.Config, log *logger.Logger) *App {
	if log == nil {
		log = logger.NewNop()
	}
	return &App{
		config: cfg,
		logger: log,
	}
}

// Run starts every component and blocks until ctx is cancelled or the HTTP
// server fails, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(); err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	a.logger.Info(version.FormatStartupMessage(),
		logger.Field{Key: "addr", Value: a.server.Addr()})

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-a.serverErr:
		if ok && err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Queue returns the queue, nil before Initialize.
func (a *App) Queue() *queue.Queue {
	return a.queue
}

// Addr returns the address the HTTP server is bound to.
func (a *App) Addr() string {
	if a.server == nil {
		return a.config.Server.Addr
	}
	return a.server.Addr()
}
