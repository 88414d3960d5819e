package queue

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/google/uuid"
)

// Queue is a single work pool. One mutex guards the catalog, the pending
// list and both wait registries. Callbacks always run after the mutex is
// released; whichever path removes a parked entry under the mutex owns
// its callback.
type Queue struct {
	mu sync.Mutex

	interval   time.Duration
	duplicates DuplicatePolicy
	rng        *rand.Rand
	newID      func() string
	now        func() time.Time
	logger     *logger.Logger
	metrics    Metrics
	closed     bool

	catalog   map[string]*task
	pending   pendingList
	workers   waiterList
	listening int
}

// New creates an empty queue. A nil logger discards output.
func New(log *logger.Logger, opts ...Option) *Queue {
	if log == nil {
		log = logger.NewNop()
	}
	seed := uint64(time.Now().UnixNano())
	q := &Queue{
		interval:   DefaultPollingInterval,
		duplicates: DuplicateReject,
		rng:        rand.New(rand.NewPCG(seed, seed>>1)),
		newID:      uuid.NewString,
		now:        time.Now,
		logger:     log,
		metrics:    nopMetrics{},
		catalog:    make(map[string]*task),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PollingInterval returns how long parked requests wait before timing out.
func (q *Queue) PollingInterval() time.Duration {
	return q.interval
}

// Submit registers a task and returns its id. An empty id is generated.
// When a worker is parked the task goes straight to the earliest one and
// never enters the pending list. Submit never blocks on workers.
func (q *Queue) Submit(id string, input json.RawMessage) (string, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}
	if id == "" {
		id = q.newID()
	}

	replaced := false
	if prev, ok := q.catalog[id]; ok {
		if q.duplicates != DuplicateOverwrite {
			q.mu.Unlock()
			return "", fmt.Errorf("%w: %s", ErrTaskExists, id)
		}
		// The old record keeps its parked listeners until they time out.
		q.pending.remove(prev)
		replaced = true
	}

	now := q.now()
	t := newTask(id, input, now)
	q.catalog[id] = t

	w := q.workers.shift()
	if w != nil {
		t.claim(now)
	} else {
		q.pending.enqueue(t)
	}
	info := t.info()
	q.reportDepth()
	q.mu.Unlock()

	if replaced {
		q.logger.Warn("task id reused, previous record replaced",
			logger.Field{Key: "task_id", Value: id})
	}
	q.metrics.TaskSubmitted()

	if w != nil {
		q.metrics.TaskClaimed(0)
		q.logger.Debug("task handed to parked worker",
			logger.Field{Key: "task_id", Value: id},
			logger.Field{Key: "parked_ms", Value: now.Sub(w.parkedAt).Milliseconds()})
		q.call("worker task", id, func() { w.onTask(info) })
		return id, nil
	}

	q.logger.Debug("task queued", logger.Field{Key: "task_id", Value: id})
	return id, nil
}

// PullOrWait hands a pending task to onTask, synchronously, or parks the
// pull until a task is submitted or the polling interval elapses, in which
// case onTimeout runs and the caller should retry. The returned CancelFunc
// is the disconnect hook: it drops the parked pull without invoking
// either callback.
func (q *Queue) PullOrWait(policy Policy, onTask func(TaskInfo), onTimeout func()) (CancelFunc, error) {
	if !policy.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, policy)
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}

	now := q.now()
	if t := q.pending.take(policy, q.rng); t != nil {
		t.claim(now)
		info := t.info()
		wait := now.Sub(t.createdAt)
		q.reportDepth()
		q.mu.Unlock()

		q.metrics.TaskClaimed(wait)
		q.logger.Debug("task pulled",
			logger.Field{Key: "task_id", Value: info.ID},
			logger.Field{Key: "policy", Value: policy})
		q.call("worker task", info.ID, func() { onTask(info) })
		return noopCancel, nil
	}

	w := &waiter{onTask: onTask, onTimeout: onTimeout, parkedAt: now}
	w.timer = time.AfterFunc(q.interval, func() { q.expireWaiter(w) })
	q.workers.push(w)
	parked := q.workers.len()
	q.reportDepth()
	q.mu.Unlock()

	q.logger.Debug("worker parked",
		logger.Field{Key: "policy", Value: policy},
		logger.Field{Key: "parked_workers", Value: parked})
	return func() bool { return q.cancelWaiter(w) }, nil
}

func (q *Queue) expireWaiter(w *waiter) {
	q.mu.Lock()
	removed := q.workers.remove(w)
	if removed {
		q.reportDepth()
	}
	q.mu.Unlock()
	if !removed {
		return
	}

	q.metrics.WaitExpired(WaitWorker)
	q.logger.Debug("parked worker timed out")
	q.call("worker timeout", "", w.onTimeout)
}

func (q *Queue) cancelWaiter(w *waiter) bool {
	q.mu.Lock()
	removed := q.workers.remove(w)
	if removed {
		q.reportDepth()
	}
	q.mu.Unlock()

	if removed {
		q.metrics.WaitCancelled(WaitWorker)
		q.logger.Debug("parked worker cancelled")
	}
	return removed
}

// Release returns a claimed task to the queue: to the earliest parked
// worker, or to the head of the pending list. Used when the worker a task
// was handed to went away before receiving it. Release also works on a
// closed queue, where the task always goes back to pending.
func (q *Queue) Release(id string) error {
	q.mu.Lock()
	t, ok := q.catalog[id]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if t.state != StateClaimed {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotClaimed, id, t.state)
	}

	w := q.workers.shift()
	if w != nil {
		t.claim(q.now())
	} else {
		t.unclaim()
		q.pending.requeue(t)
	}
	info := t.info()
	q.reportDepth()
	q.mu.Unlock()

	q.logger.Debug("claimed task released", logger.Field{Key: "task_id", Value: id})
	if w != nil {
		q.metrics.TaskClaimed(0)
		q.call("worker task", id, func() { w.onTask(info) })
	}
	return nil
}

// DispatchResult stores the output of a task and notifies every result
// poll currently parked on it. It returns ErrTaskNotFound for unknown ids.
// A repeated dispatch for a resolved task succeeds and keeps the first
// output.
func (q *Queue) DispatchResult(id string, output json.RawMessage) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	t, ok := q.catalog[id]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if t.state == StateResolved {
		q.mu.Unlock()
		q.logger.Debug("repeated dispatch ignored, output kept",
			logger.Field{Key: "task_id", Value: id})
		return nil
	}

	// Resolved before any worker pulled it.
	q.pending.removeByID(id)

	flushed := t.resolve(output, q.now())
	for _, l := range flushed {
		l.timer.Stop()
	}
	q.listening -= len(flushed)
	q.reportDepth()
	q.mu.Unlock()

	q.metrics.TaskResolved()
	q.logger.Debug("result dispatched",
		logger.Field{Key: "task_id", Value: id},
		logger.Field{Key: "listeners", Value: len(flushed)})

	for _, l := range flushed {
		q.call("result listener", id, func() { l.onOutput(output) })
	}
	return nil
}

// PullOrWaitResult delivers the output of a task to onOutput, or parks
// until it is dispatched or the polling interval elapses. Output of an
// already resolved task is delivered synchronously. Unknown ids fail with
// ErrTaskNotFound and start no timer.
func (q *Queue) PullOrWaitResult(id string, onOutput func(json.RawMessage), onTimeout func()) (CancelFunc, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	t, ok := q.catalog[id]
	if !ok {
		q.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if t.state == StateResolved {
		output := t.output
		q.mu.Unlock()
		q.call("result listener", id, func() { onOutput(output) })
		return noopCancel, nil
	}

	l := &listener{onOutput: onOutput, onTimeout: onTimeout}
	l.timer = time.AfterFunc(q.interval, func() { q.expireListener(t, l) })
	t.addListener(l)
	q.listening++
	q.reportDepth()
	q.mu.Unlock()

	q.logger.Debug("result listener parked", logger.Field{Key: "task_id", Value: id})
	return func() bool { return q.cancelListener(t, l) }, nil
}

func (q *Queue) expireListener(t *task, l *listener) {
	q.mu.Lock()
	removed := t.removeListener(l)
	if removed {
		q.listening--
		q.reportDepth()
	}
	q.mu.Unlock()
	if !removed {
		return
	}

	q.metrics.WaitExpired(WaitResult)
	q.logger.Debug("result listener timed out", logger.Field{Key: "task_id", Value: t.id})
	q.call("result timeout", t.id, l.onTimeout)
}

func (q *Queue) cancelListener(t *task, l *listener) bool {
	q.mu.Lock()
	removed := t.removeListener(l)
	if removed {
		l.timer.Stop()
		q.listening--
		q.reportDepth()
	}
	q.mu.Unlock()

	if removed {
		q.metrics.WaitCancelled(WaitResult)
		q.logger.Debug("result listener cancelled", logger.Field{Key: "task_id", Value: t.id})
	}
	return removed
}

// Delete removes a task from the catalog and, if it was never claimed,
// from the pending list. Result polls already parked on it run to their
// own timeout.
func (q *Queue) Delete(id string) bool {
	q.mu.Lock()
	t, ok := q.catalog[id]
	if ok {
		delete(q.catalog, id)
		q.pending.remove(t)
		q.reportDepth()
	}
	q.mu.Unlock()

	if ok {
		q.metrics.TasksRemoved("deleted", 1)
		q.logger.Debug("task deleted", logger.Field{Key: "task_id", Value: id})
	}
	return ok
}

// EvictResolved deletes resolved tasks whose output was dispatched before
// cutoff and returns how many were removed.
func (q *Queue) EvictResolved(cutoff time.Time) int {
	q.mu.Lock()
	evicted := 0
	for id, t := range q.catalog {
		if t.state == StateResolved && t.resolvedAt.Before(cutoff) {
			delete(q.catalog, id)
			evicted++
		}
	}
	q.mu.Unlock()

	if evicted > 0 {
		q.metrics.TasksRemoved("evicted", evicted)
	}
	return evicted
}

// Get returns a snapshot of the task record.
func (q *Queue) Get(id string) (Snapshot, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.catalog[id]
	if !ok {
		return Snapshot{}, false
	}
	return t.snapshot(), true
}

// Close times out every parked pull and poll so their callers retry
// elsewhere, and rejects further operations with ErrQueueClosed. Close is
// idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true

	workers := q.workers.drain()
	var listeners []*listener
	for _, t := range q.catalog {
		for _, l := range t.listeners {
			l.timer.Stop()
			listeners = append(listeners, l)
		}
		t.listeners = nil
	}
	q.listening -= len(listeners)
	q.reportDepth()
	q.mu.Unlock()

	q.logger.Info("queue closed",
		logger.Field{Key: "released_workers", Value: len(workers)},
		logger.Field{Key: "released_listeners", Value: len(listeners)})

	for _, w := range workers {
		q.call("worker timeout", "", w.onTimeout)
	}
	for _, l := range listeners {
		q.call("result timeout", "", l.onTimeout)
	}
}

// reportDepth must be called with q.mu held.
func (q *Queue) reportDepth() {
	q.metrics.SetDepth(Depth{
		Pending:         q.pending.len(),
		ParkedWorkers:   q.workers.len(),
		ParkedListeners: q.listening,
	})
}

// call runs a caller supplied callback, isolating panics.
func (q *Queue) call(what, taskID string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.metrics.CallbackPanicked()
			q.logger.Error("queue callback panicked", fmt.Errorf("panic: %v", r),
				logger.Field{Key: "callback", Value: what},
				logger.Field{Key: "task_id", Value: taskID})
		}
	}()
	fn()
}
