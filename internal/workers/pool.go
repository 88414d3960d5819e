package workers

import (
	"context"
	"sync"

	"github.com/aatumaykin/taskpoll/internal/logger"
)

// WorkerPool manages a pool of goroutine workers that pull tasks from a
// Source.
type WorkerPool struct {
	source   Source
	execute  TaskExecutor
	config   Config
	resultCh chan Result
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *logger.Logger

	mu      sync.Mutex
	metrics PoolMetrics
	started bool
	stopped bool
}

// NewPool creates a new worker pool with the specified configuration.
func NewPool(source Source, execute TaskExecutor, cfg Config, log *logger.Logger) *WorkerPool {
	if log == nil {
		log = logger.NewNop()
	}
	cfg = cfg.withDefaults()
	return &WorkerPool{
		source:   source,
		execute:  execute,
		config:   cfg,
		resultCh: make(chan Result, cfg.ResultBuffer),
		logger:   log,
	}
}

// Start launches the workers. They run until ctx is cancelled or Stop is
// called.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.logger.Info("starting worker pool",
		logger.Field{Key: "workers", Value: p.config.Workers},
		logger.Field{Key: "policy", Value: string(p.config.Policy)})

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Wait blocks until every worker has returned.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Results returns a read-only channel of task outcomes. Results are
// dropped when nobody drains the channel and its buffer is full. The
// channel is closed by Stop.
func (p *WorkerPool) Results() <-chan Result {
	return p.resultCh
}

// Stop cancels in-flight pulls and waits for running tasks to be reported.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	metrics := p.Metrics()
	p.logger.Info("worker pool stopped",
		logger.Field{Key: "tasks_pulled", Value: metrics.TasksPulled},
		logger.Field{Key: "tasks_completed", Value: metrics.TasksCompleted},
		logger.Field{Key: "tasks_failed", Value: metrics.TasksFailed})

	close(p.resultCh)
}

// WorkerCount returns the number of workers.
func (p *WorkerPool) WorkerCount() int {
	return p.config.Workers
}
