package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aatumaykin/taskpoll/internal/janitor"
	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/metrics"
	"github.com/aatumaykin/taskpoll/internal/queue"
	"github.com/aatumaykin/taskpoll/internal/server"
	"github.com/aatumaykin/taskpoll/internal/workers"
)

// Initialize validates the configuration and builds every component.
func (a *App) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}
	if errs := a.config.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	opts, err := a.queueOptions()
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Addr:              a.config.Server.Addr,
		Mode:              a.config.Server.Mode,
		ReadHeaderTimeout: time.Duration(a.config.Server.ReadHeaderTimeoutSeconds) * time.Second,
	}

	if a.config.Metrics.Enabled {
		a.registry = metrics.NewRegistry()
		opts = append(opts, queue.WithMetrics(metrics.New(a.config.Metrics.Namespace, a.registry)))
		srvCfg.MetricsPath = a.config.Metrics.Path
		srvCfg.MetricsHandler = metrics.Handler(a.registry)
	}

	a.queue = queue.New(a.logger.With(logger.Field{Key: "component", Value: "queue"}), opts...)
	a.server = server.New(a.queue, srvCfg, a.logger)
	a.janitor = janitor.New(a.queue, janitor.Config{
		Enabled:     a.config.Janitor.Enabled,
		Schedule:    a.config.Janitor.Schedule,
		ResolvedTTL: a.config.Janitor.ResolvedTTL(),
	}, a.logger)

	if a.config.Worker.Embedded {
		pool, err := a.embeddedPool()
		if err != nil {
			return err
		}
		a.workerPool = pool
	}

	a.initialized = true
	a.logger.Info("components initialized",
		logger.Field{Key: "polling_interval", Value: a.queue.PollingInterval().String()},
		logger.Field{Key: "metrics", Value: a.config.Metrics.Enabled},
		logger.Field{Key: "janitor", Value: a.config.Janitor.Enabled},
		logger.Field{Key: "embedded_workers", Value: a.config.Worker.Embedded})
	return nil
}

func (a *App) queueOptions() ([]queue.Option, error) {
	dup, err := queue.ParseDuplicatePolicy(a.config.Queue.DuplicateIDs)
	if err != nil {
		return nil, err
	}
	opts := []queue.Option{
		queue.WithPollingInterval(a.config.Queue.PollingInterval()),
		queue.WithDuplicatePolicy(dup),
	}
	if a.config.Queue.RandomSeed != 0 {
		opts = append(opts, queue.WithSeed(a.config.Queue.RandomSeed))
	}
	return opts, nil
}

func (a *App) embeddedPool() (*workers.WorkerPool, error) {
	policy, err := queue.ParsePolicy(a.config.Worker.Policy)
	if err != nil {
		return nil, err
	}
	execute, err := workers.CommandExecutor(a.config.Worker.Command)
	if err != nil {
		return nil, err
	}
	return workers.NewPool(workers.LocalSource{Queue: a.queue}, execute, workers.Config{
		Workers:     a.config.Worker.Concurrency,
		Policy:      policy,
		TaskTimeout: a.config.Worker.TaskTimeout(),
	}, a.logger.With(logger.Field{Key: "component", Value: "worker"})), nil
}

// Start binds the HTTP listener and starts the background components.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return errors.New("app is not initialized")
	}
	if a.started {
		return errors.New("app already started")
	}

	errCh, err := a.server.Start()
	if err != nil {
		return err
	}
	a.serverErr = errCh

	if err := a.janitor.Start(ctx); err != nil {
		_ = a.server.Shutdown(context.Background())
		return err
	}
	if a.workerPool != nil {
		a.workerPool.Start(ctx)
	}

	a.started = true
	return nil
}
