package app

import (
	"context"
	"errors"
	"time"
)

// Shutdown stops the components in the following order:
//  1. Stops the embedded worker pool (running tasks are still reported)
//  2. Stops the janitor
//  3. Closes the queue, answering every parked long poll with a redirect
//  4. Shuts the HTTP server down within server.shutdown_timeout_seconds
//
// Safe to call more than once.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	if a.workerPool != nil {
		a.workerPool.Stop()
	}
	a.janitor.Stop()
	a.queue.Close()

	timeout := time.Duration(a.config.Server.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("failed to stop http server", err)
		errs = append(errs, err)
	}

	a.started = false
	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
