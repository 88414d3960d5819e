package workers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aatumaykin/taskpoll/internal/queue"
)

// LocalSource serves a pool from an in-process queue.
type LocalSource struct {
	Queue *queue.Queue
}

// Pull parks on the queue, starting a new wait each time the polling
// interval elapses.
func (s LocalSource) Pull(ctx context.Context, policy queue.Policy) (queue.TaskInfo, error) {
	for {
		task, err := s.Queue.Pull(ctx, policy)
		if errors.Is(err, queue.ErrPollTimeout) {
			continue
		}
		return task, err
	}
}

func (s LocalSource) Report(_ context.Context, id string, output json.RawMessage) error {
	return s.Queue.DispatchResult(id, output)
}
