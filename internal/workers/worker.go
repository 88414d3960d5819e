package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/queue"
)

// worker pulls, executes and reports until the pool context ends.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.DebugCtx(p.ctx, "worker started",
		logger.Field{Key: "worker_id", Value: id})

	for {
		task, err := p.source.Pull(p.ctx, p.config.Policy)
		if err != nil {
			if p.ctx.Err() != nil {
				p.logger.DebugCtx(p.ctx, "worker stopping",
					logger.Field{Key: "worker_id", Value: id})
				return
			}
			p.logger.WarnCtx(p.ctx, "pull failed",
				logger.Field{Key: "worker_id", Value: id},
				logger.Field{Key: "error", Value: err.Error()})
			if !p.sleep(p.config.ErrorBackoff) {
				return
			}
			continue
		}

		p.incrementPulled()
		p.processTask(id, task)
	}
}

func (p *WorkerPool) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// processTask executes one task and reports its output. The report is
// sent even while the pool is stopping so that a claimed task is not left
// without an output.
func (p *WorkerPool) processTask(workerID int, task queue.TaskInfo) {
	startTime := time.Now()

	p.logger.DebugCtx(p.ctx, "processing task",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "task_id", Value: task.ID})

	output, execErr := p.executeTask(task)
	duration := time.Since(startTime)
	if execErr != nil {
		output = errorOutput(execErr)
	}

	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), p.config.ReportTimeout)
	reportErr := p.source.Report(reportCtx, task.ID, output)
	cancel()

	if reportErr != nil {
		p.logger.Error("failed to report task output", reportErr,
			logger.Field{Key: "worker_id", Value: workerID},
			logger.Field{Key: "task_id", Value: task.ID})
	}
	p.recordOutcome(execErr != nil, reportErr != nil, duration)

	resultErr := execErr
	if resultErr == nil {
		resultErr = reportErr
	}
	select {
	case p.resultCh <- Result{TaskID: task.ID, Output: output, Error: resultErr, Duration: duration}:
	default:
		p.logger.DebugCtx(p.ctx, "result channel full, dropping result",
			logger.Field{Key: "task_id", Value: task.ID})
	}

	p.logger.InfoCtx(p.ctx, "task processed",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "duration_ms", Value: duration.Milliseconds()},
		logger.Field{Key: "failed", Value: execErr != nil})
}

// executeTask runs the executor with the task timeout, turning a panic
// into an error.
func (p *WorkerPool) executeTask(task queue.TaskInfo) (output json.RawMessage, err error) {
	ctx := context.WithoutCancel(p.ctx)
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task executor panic recovered",
				fmt.Errorf("panic: %v", r),
				logger.Field{Key: "task_id", Value: task.ID})
			output, err = nil, fmt.Errorf("executor panic: %v", r)
		}
	}()

	output, err = p.execute(ctx, task)
	if err == nil && len(output) == 0 {
		output = json.RawMessage("null")
	}
	return output, err
}

// errorOutput is the output reported for a failed task.
func errorOutput(err error) json.RawMessage {
	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
	return data
}
