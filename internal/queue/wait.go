package queue

import (
	"context"
	"encoding/json"

	"github.com/aatumaykin/taskpoll/internal/logger"
)

// Pull blocks until a task is available, the polling interval elapses
// (ErrPollTimeout) or ctx is done. ctx usually is the caller's request
// context, so a disconnect cancels the parked pull. A task handed over in
// the same instant ctx ended is released back to the queue.
func (q *Queue) Pull(ctx context.Context, policy Policy) (TaskInfo, error) {
	tasks := make(chan TaskInfo, 1)
	expired := make(chan struct{}, 1)

	cancel, err := q.PullOrWait(policy,
		func(t TaskInfo) { tasks <- t },
		func() { expired <- struct{}{} })
	if err != nil {
		return TaskInfo{}, err
	}

	select {
	case t := <-tasks:
		return t, nil
	case <-expired:
		return TaskInfo{}, ErrPollTimeout
	case <-ctx.Done():
		if cancel() {
			return TaskInfo{}, ctx.Err()
		}
	}

	// Cancellation lost the race: a callback has run or is about to.
	select {
	case t := <-tasks:
		if err := q.Release(t.ID); err != nil {
			q.logger.Warn("failed to release task of cancelled pull",
				logger.Field{Key: "task_id", Value: t.ID},
				logger.Field{Key: "error", Value: err})
		}
	case <-expired:
	}
	return TaskInfo{}, ctx.Err()
}

// WaitResult blocks until the output of task id is available, the polling
// interval elapses (ErrPollTimeout) or ctx is done.
func (q *Queue) WaitResult(ctx context.Context, id string) (json.RawMessage, error) {
	outputs := make(chan json.RawMessage, 1)
	expired := make(chan struct{}, 1)

	cancel, err := q.PullOrWaitResult(id,
		func(out json.RawMessage) { outputs <- out },
		func() { expired <- struct{}{} })
	if err != nil {
		return nil, err
	}

	select {
	case out := <-outputs:
		return out, nil
	case <-expired:
		return nil, ErrPollTimeout
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}
