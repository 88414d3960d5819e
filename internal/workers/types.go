// Package workers runs a pool of goroutines that long-poll a taskpoll
// server for tasks, execute them and report their outputs.
package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aatumaykin/taskpoll/internal/queue"
)

// Source hands out tasks and accepts their outputs. *client.Client
// implements it; so does an in-process adapter over *queue.Queue.
type Source interface {
	Pull(ctx context.Context, policy queue.Policy) (queue.TaskInfo, error)
	Report(ctx context.Context, id string, output json.RawMessage) error
}

// Result represents the outcome of a task execution.
type Result struct {
	TaskID   string          // ID of the executed task
	Output   json.RawMessage // Reported output
	Error    error           // Execution or report error
	Duration time.Duration   // Execution duration
}

// PoolMetrics tracks execution metrics for the worker pool.
type PoolMetrics struct {
	TasksPulled    uint64
	TasksCompleted uint64
	TasksFailed    uint64
	ReportsFailed  uint64
	TotalDuration  time.Duration
}

// TaskExecutor computes the output of one task.
type TaskExecutor func(context.Context, queue.TaskInfo) (json.RawMessage, error)

// Config holds worker pool settings.
type Config struct {
	Workers       int
	Policy        queue.Policy
	TaskTimeout   time.Duration // zero means no limit
	ErrorBackoff  time.Duration // pause after a failed pull
	ReportTimeout time.Duration
	ResultBuffer  int
}

// Constants for worker pool configuration
const (
	DefaultTaskTimeout   = 5 * time.Minute
	DefaultPoolSize      = 1
	DefaultErrorBackoff  = time.Second
	DefaultReportTimeout = 30 * time.Second
	DefaultResultBuffer  = 100
)

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultPoolSize
	}
	if c.Policy == "" {
		c.Policy = queue.PolicyFirst
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = DefaultErrorBackoff
	}
	if c.ReportTimeout <= 0 {
		c.ReportTimeout = DefaultReportTimeout
	}
	if c.ResultBuffer <= 0 {
		c.ResultBuffer = DefaultResultBuffer
	}
	return c
}
