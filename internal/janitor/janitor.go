// Package janitor periodically evicts resolved tasks from the queue so that
// retained outputs do not accumulate without bound. Runs are scheduled with
// robfig/cron/v3 using the standard five-field syntax or descriptors such as
// "@every 1m".
package janitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/robfig/cron/v3"
)

// Evictor is the part of the queue the janitor needs.
type Evictor interface {
	EvictResolved(cutoff time.Time) int
}

// Config holds configuration for the janitor.
type Config struct {
	Enabled     bool
	Schedule    string        // cron expression
	ResolvedTTL time.Duration // how long a resolved task is kept
}

// Janitor runs EvictResolved on a cron schedule.
type Janitor struct {
	queue  Evictor
	config Config
	logger *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	started bool
}

// New creates a janitor. It does nothing until Start is called.
func New(queue Evictor, config Config, log *logger.Logger) *Janitor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Janitor{
		queue:  queue,
		config: config,
		logger: log,
		now:    time.Now,
	}
}

// Start schedules periodic sweeps. It returns immediately; sweeps stop when
// ctx is cancelled or Stop is called.
func (j *Janitor) Start(ctx context.Context) error {
	if !j.config.Enabled {
		j.logger.Info("janitor disabled")
		return nil
	}
	if j.config.ResolvedTTL <= 0 {
		return fmt.Errorf("janitor: resolved ttl must be positive, got %s", j.config.ResolvedTTL)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.started {
		return fmt.Errorf("janitor already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(j.config.Schedule, func() { j.sweep("scheduled") }); err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", j.config.Schedule, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	j.cron = c
	j.cancel = cancel
	j.started = true
	c.Start()

	j.logger.Info("janitor started",
		logger.Field{Key: "schedule", Value: j.config.Schedule},
		logger.Field{Key: "resolved_ttl", Value: j.config.ResolvedTTL.String()})

	go func() {
		<-runCtx.Done()
		j.Stop()
	}()

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
// Safe to call more than once.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.started {
		j.mu.Unlock()
		return
	}
	j.started = false
	c, cancel := j.cron, j.cancel
	j.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	j.logger.Info("janitor stopped")
}

// Trigger runs a sweep immediately and returns the number of evicted tasks.
func (j *Janitor) Trigger() int {
	return j.sweep("manual")
}

func (j *Janitor) sweep(reason string) int {
	cutoff := j.now().Add(-j.config.ResolvedTTL)
	n := j.queue.EvictResolved(cutoff)

	if n > 0 {
		j.logger.Info("evicted resolved tasks",
			logger.Field{Key: "count", Value: n},
			logger.Field{Key: "trigger", Value: reason},
			logger.Field{Key: "cutoff", Value: cutoff.Format(time.RFC3339)})
	} else {
		j.logger.Debug("janitor sweep: nothing to evict",
			logger.Field{Key: "trigger", Value: reason})
	}
	return n
}
