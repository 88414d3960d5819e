package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, opts ...Option) *Queue {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	q := New(log, append([]Option{WithPollingInterval(time.Hour)}, opts...)...)
	t.Cleanup(q.Close)
	return q
}

func sequentialIDs(prefix string) func() string {
	var n int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, atomic.AddInt64(&n, 1))
	}
}

// pullRecorder captures the callbacks of one parked pull.
type pullRecorder struct {
	mu       sync.Mutex
	tasks    []TaskInfo
	timeouts int
}

func (r *pullRecorder) onTask(t TaskInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, t)
}

func (r *pullRecorder) onTimeout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts++
}

func (r *pullRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks), r.timeouts
}

// resultRecorder captures the callbacks of one parked result poll.
type resultRecorder struct {
	mu       sync.Mutex
	outputs  []json.RawMessage
	timeouts int
}

func (r *resultRecorder) onOutput(out json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = append(r.outputs, out)
}

func (r *resultRecorder) onTimeout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts++
}

func (r *resultRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outputs), r.timeouts
}

func TestSubmit_GeneratesUniqueIDs(t *testing.T) {
	q := newTestQueue(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := q.Submit("", json.RawMessage(`{}`))
		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, 100, q.Stats().Pending)
}

func TestSubmit_CallerSuppliedID(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("job-42", json.RawMessage(`"payload"`))
	require.NoError(t, err)
	assert.Equal(t, "job-42", id)

	snap, ok := q.Get("job-42")
	require.True(t, ok)
	assert.Equal(t, StatePending, snap.State)
	assert.JSONEq(t, `"payload"`, string(snap.Input))
}

func TestSubmit_DuplicateRejected(t *testing.T) {
	q := newTestQueue(t)

	_, err := q.Submit("dup", json.RawMessage(`1`))
	require.NoError(t, err)

	_, err = q.Submit("dup", json.RawMessage(`2`))
	assert.ErrorIs(t, err, ErrTaskExists)

	snap, _ := q.Get("dup")
	assert.JSONEq(t, `1`, string(snap.Input))
	assert.Equal(t, 1, q.Stats().Pending)
}

func TestSubmit_DuplicateOverwrite(t *testing.T) {
	q := newTestQueue(t, WithDuplicatePolicy(DuplicateOverwrite))

	_, err := q.Submit("dup", json.RawMessage(`1`))
	require.NoError(t, err)
	_, err = q.Submit("dup", json.RawMessage(`2`))
	require.NoError(t, err)

	assert.Equal(t, 1, q.Stats().Pending)

	rec := &pullRecorder{}
	_, err = q.PullOrWait(PolicyFirst, rec.onTask, rec.onTimeout)
	require.NoError(t, err)
	require.Len(t, rec.tasks, 1)
	assert.JSONEq(t, `2`, string(rec.tasks[0].Input))
	assert.Equal(t, 0, q.Stats().Pending)
}

func TestSubmit_OverwriteIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewWithWriter(&buf, logger.Config{Level: "warn", Format: "json"})
	require.NoError(t, err)
	q := newTestQueue(t, WithDuplicatePolicy(DuplicateOverwrite), WithLogger(log))

	_, err = q.Submit("dup", json.RawMessage(`1`))
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	_, err = q.Submit("dup", json.RawMessage(`2`))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "previous record replaced")
	assert.Contains(t, buf.String(), `"task_id":"dup"`)
}

func TestPullOrWait_FirstIsFIFO(t *testing.T) {
	q := newTestQueue(t)

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := q.Submit("", json.RawMessage(fmt.Sprintf(`%d`, i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for i := 0; i < 5; i++ {
		rec := &pullRecorder{}
		_, err := q.PullOrWait(PolicyFirst, rec.onTask, rec.onTimeout)
		require.NoError(t, err)
		require.Len(t, rec.tasks, 1, "pull must be fulfilled synchronously")
		assert.Equal(t, ids[i], rec.tasks[0].ID)
	}
	assert.Equal(t, 0, q.Stats().Pending)
	assert.Equal(t, 5, q.Stats().Claimed)
}

func TestPullOrWait_InvalidPolicy(t *testing.T) {
	q := newTestQueue(t)

	cancel, err := q.PullOrWait(Policy("last"), func(TaskInfo) {}, func() {})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Nil(t, cancel)
	assert.Equal(t, 0, q.Stats().ParkedWorkers)
}

func TestScenario_SubmitPullDispatch(t *testing.T) {
	q := newTestQueue(t, WithIDGenerator(sequentialIDs("t")))

	id, err := q.Submit("", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	require.Equal(t, "t1", id)

	results := &resultRecorder{}
	_, err = q.PullOrWaitResult("t1", results.onOutput, results.onTimeout)
	require.NoError(t, err)

	pulls := &pullRecorder{}
	_, err = q.PullOrWait(PolicyFirst, pulls.onTask, pulls.onTimeout)
	require.NoError(t, err)
	require.Len(t, pulls.tasks, 1)
	assert.Equal(t, "t1", pulls.tasks[0].ID)
	assert.JSONEq(t, `{"x":1}`, string(pulls.tasks[0].Input))
	assert.Equal(t, 0, q.Stats().Pending)

	require.NoError(t, q.DispatchResult("t1", json.RawMessage(`{"y":2}`)))

	outputs, timeouts := results.counts()
	require.Equal(t, 1, outputs)
	assert.Equal(t, 0, timeouts)
	assert.JSONEq(t, `{"y":2}`, string(results.outputs[0]))
}

func TestParkedWorkers_EarliestIsFulfilled(t *testing.T) {
	q := newTestQueue(t)

	recs := make([]*pullRecorder, 3)
	for i := range recs {
		recs[i] = &pullRecorder{}
		_, err := q.PullOrWait(PolicyFirst, recs[i].onTask, recs[i].onTimeout)
		require.NoError(t, err)
	}
	require.Equal(t, 3, q.Stats().ParkedWorkers)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	got, _ := recs[0].counts()
	require.Equal(t, 1, got)
	assert.Equal(t, id, recs[0].tasks[0].ID)
	for _, r := range recs[1:] {
		tasks, timeouts := r.counts()
		assert.Zero(t, tasks)
		assert.Zero(t, timeouts)
	}

	stats := q.Stats()
	assert.Equal(t, 2, stats.ParkedWorkers)
	assert.Equal(t, 0, stats.Pending, "handed-off task never enters the pending list")
	assert.Equal(t, 1, stats.Claimed)
}

func TestParkedRandomWorkers_ExactlyOneFulfilled(t *testing.T) {
	q := newTestQueue(t)

	a, b := &pullRecorder{}, &pullRecorder{}
	_, err := q.PullOrWait(PolicyRandom, a.onTask, a.onTimeout)
	require.NoError(t, err)
	_, err = q.PullOrWait(PolicyRandom, b.onTask, b.onTimeout)
	require.NoError(t, err)

	_, err = q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	na, _ := a.counts()
	nb, _ := b.counts()
	assert.Equal(t, 1, na+nb)
	assert.Equal(t, 1, q.Stats().ParkedWorkers)
}

func TestSelectRandom_ReproducibleWithSeed(t *testing.T) {
	order := func() []string {
		q := newTestQueue(t, WithSeed(7), WithIDGenerator(sequentialIDs("r")))
		for i := 0; i < 10; i++ {
			_, err := q.Submit("", json.RawMessage(`{}`))
			require.NoError(t, err)
		}
		var got []string
		for i := 0; i < 10; i++ {
			rec := &pullRecorder{}
			_, err := q.PullOrWait(PolicyRandom, rec.onTask, rec.onTimeout)
			require.NoError(t, err)
			require.Len(t, rec.tasks, 1)
			got = append(got, rec.tasks[0].ID)
		}
		return got
	}

	first, second := order(), order()
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8", "r9", "r10"}, first)
}

func TestDispatchResult_UnknownID(t *testing.T) {
	q := newTestQueue(t)

	err := q.DispatchResult("missing", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDispatchResult_NotifiesEveryListenerOnce(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	recs := make([]*resultRecorder, 3)
	for i := range recs {
		recs[i] = &resultRecorder{}
		_, err := q.PullOrWaitResult(id, recs[i].onOutput, recs[i].onTimeout)
		require.NoError(t, err)
	}
	require.Equal(t, 3, q.Stats().ParkedListeners)

	require.NoError(t, q.DispatchResult(id, json.RawMessage(`{"ok":true}`)))

	for _, r := range recs {
		outputs, timeouts := r.counts()
		require.Equal(t, 1, outputs)
		assert.Zero(t, timeouts)
		assert.JSONEq(t, `{"ok":true}`, string(r.outputs[0]))
	}
	assert.Equal(t, 0, q.Stats().ParkedListeners)

	snap, ok := q.Get(id)
	require.True(t, ok, "resolved tasks stay in the catalog")
	assert.Equal(t, StateResolved, snap.State)
	assert.NotNil(t, snap.ResolvedAt)
}

func TestDispatchResult_BeforePullRemovesPending(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NoError(t, q.DispatchResult(id, json.RawMessage(`"early"`)))

	assert.Equal(t, 0, q.Stats().Pending)

	rec := &pullRecorder{}
	cancel, err := q.PullOrWait(PolicyFirst, rec.onTask, rec.onTimeout)
	require.NoError(t, err)
	tasks, _ := rec.counts()
	assert.Zero(t, tasks, "resolved task must not be selected again")
	assert.True(t, cancel())
}

func TestDispatchResult_RepeatKeepsFirstOutput(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NoError(t, q.DispatchResult(id, json.RawMessage(`1`)))

	rec := &resultRecorder{}
	_, err = q.PullOrWaitResult(id, rec.onOutput, rec.onTimeout)
	require.NoError(t, err)

	assert.NoError(t, q.DispatchResult(id, json.RawMessage(`2`)))
	outputs, _ := rec.counts()
	assert.Equal(t, 1, outputs, "repeat dispatch must not notify again")

	snap, _ := q.Get(id)
	assert.JSONEq(t, `1`, string(snap.Output))
}

func TestDispatchResult_ListenerPanicIsIsolated(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	_, err = q.PullOrWaitResult(id, func(json.RawMessage) { panic("listener exploded") }, nil)
	require.NoError(t, err)
	survivor := &resultRecorder{}
	_, err = q.PullOrWaitResult(id, survivor.onOutput, survivor.onTimeout)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		require.NoError(t, q.DispatchResult(id, json.RawMessage(`"done"`)))
	})

	outputs, _ := survivor.counts()
	assert.Equal(t, 1, outputs)
}

func TestPullOrWaitResult_UnknownIDStartsNoTimer(t *testing.T) {
	q := newTestQueue(t)

	cancel, err := q.PullOrWaitResult("never-submitted", func(json.RawMessage) {}, func() {})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Nil(t, cancel)
	assert.Equal(t, 0, q.Stats().ParkedListeners)
}

func TestPullOrWaitResult_AfterDispatchReplaysOutput(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NoError(t, q.DispatchResult(id, json.RawMessage(`{"y":2}`)))

	rec := &resultRecorder{}
	cancel, err := q.PullOrWaitResult(id, rec.onOutput, rec.onTimeout)
	require.NoError(t, err)

	outputs, _ := rec.counts()
	require.Equal(t, 1, outputs)
	assert.JSONEq(t, `{"y":2}`, string(rec.outputs[0]))
	assert.False(t, cancel())
	assert.Equal(t, 0, q.Stats().ParkedListeners)
}

func TestWorkerWait_TimesOutOnce(t *testing.T) {
	q := newTestQueue(t, WithPollingInterval(20*time.Millisecond))

	rec := &pullRecorder{}
	cancel, err := q.PullOrWait(PolicyFirst, rec.onTask, rec.onTimeout)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, timeouts := rec.counts()
		return timeouts == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, q.Stats().ParkedWorkers)

	_, err = q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.False(t, cancel(), "cancel after expiry is a no-op")

	time.Sleep(40 * time.Millisecond)
	tasks, timeouts := rec.counts()
	assert.Zero(t, tasks, "expired waiter must not receive later tasks")
	assert.Equal(t, 1, timeouts)
	assert.Equal(t, 1, q.Stats().Pending)
}

func TestResultWait_TimesOutOnce(t *testing.T) {
	q := newTestQueue(t, WithPollingInterval(20*time.Millisecond))

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	rec := &resultRecorder{}
	_, err = q.PullOrWaitResult(id, rec.onOutput, rec.onTimeout)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, timeouts := rec.counts()
		return timeouts == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, q.DispatchResult(id, json.RawMessage(`"late"`)))

	outputs, timeouts := rec.counts()
	assert.Zero(t, outputs)
	assert.Equal(t, 1, timeouts)
}

func TestCancelWaiter_NoCallbacks(t *testing.T) {
	q := newTestQueue(t, WithPollingInterval(20*time.Millisecond))

	rec := &pullRecorder{}
	cancel, err := q.PullOrWait(PolicyFirst, rec.onTask, rec.onTimeout)
	require.NoError(t, err)
	require.Equal(t, 1, q.Stats().ParkedWorkers)

	assert.True(t, cancel())
	assert.False(t, cancel())
	assert.Equal(t, 0, q.Stats().ParkedWorkers)

	_, err = q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	tasks, timeouts := rec.counts()
	assert.Zero(t, tasks)
	assert.Zero(t, timeouts)
	assert.Equal(t, 1, q.Stats().Pending)
}

func TestCancelListener_NoCallbacks(t *testing.T) {
	q := newTestQueue(t, WithPollingInterval(20*time.Millisecond))

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	rec := &resultRecorder{}
	cancel, err := q.PullOrWaitResult(id, rec.onOutput, rec.onTimeout)
	require.NoError(t, err)

	assert.True(t, cancel())
	assert.False(t, cancel())
	require.NoError(t, q.DispatchResult(id, json.RawMessage(`{}`)))

	time.Sleep(50 * time.Millisecond)
	outputs, timeouts := rec.counts()
	assert.Zero(t, outputs)
	assert.Zero(t, timeouts)
}

func TestDelete(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	assert.True(t, q.Delete(id))
	assert.False(t, q.Delete(id))
	assert.Equal(t, 0, q.Stats().Pending)

	_, err = q.PullOrWaitResult(id, func(json.RawMessage) {}, func() {})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = q.DispatchResult(id, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDelete_ParkedListenersRunToTimeout(t *testing.T) {
	q := newTestQueue(t, WithPollingInterval(30*time.Millisecond))

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	rec := &resultRecorder{}
	_, err = q.PullOrWaitResult(id, rec.onOutput, rec.onTimeout)
	require.NoError(t, err)

	require.True(t, q.Delete(id))
	assert.Equal(t, 1, q.Stats().ParkedListeners)

	require.Eventually(t, func() bool {
		_, timeouts := rec.counts()
		return timeouts == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, q.Stats().ParkedListeners)
}

func TestClose_AfterDeleteKeepsListenerCount(t *testing.T) {
	q := New(logger.NewNop(), WithPollingInterval(200*time.Millisecond))

	id, err := q.Submit("", nil)
	require.NoError(t, err)
	rec := &resultRecorder{}
	_, err = q.PullOrWaitResult(id, rec.onOutput, rec.onTimeout)
	require.NoError(t, err)
	require.True(t, q.Delete(id))

	q.Close()
	assert.Equal(t, 1, q.Stats().ParkedListeners)

	require.Eventually(t, func() bool {
		_, timeouts := rec.counts()
		return timeouts == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, q.Stats().ParkedListeners)
}

func TestRelease(t *testing.T) {
	q := newTestQueue(t)

	first, err := q.Submit("", json.RawMessage(`1`))
	require.NoError(t, err)
	_, err = q.Submit("", json.RawMessage(`2`))
	require.NoError(t, err)

	rec := &pullRecorder{}
	_, err = q.PullOrWait(PolicyFirst, rec.onTask, rec.onTimeout)
	require.NoError(t, err)
	require.Equal(t, first, rec.tasks[0].ID)

	require.NoError(t, q.Release(first))
	snap, _ := q.Get(first)
	assert.Equal(t, StatePending, snap.State)
	assert.Nil(t, snap.ClaimedAt)

	again := &pullRecorder{}
	_, err = q.PullOrWait(PolicyFirst, again.onTask, again.onTimeout)
	require.NoError(t, err)
	assert.Equal(t, first, again.tasks[0].ID, "released task goes to the head of the queue")

	assert.ErrorIs(t, q.Release("missing"), ErrTaskNotFound)
	require.NoError(t, q.DispatchResult(first, json.RawMessage(`{}`)))
	assert.ErrorIs(t, q.Release(first), ErrNotClaimed)
}

func TestRelease_AfterClose(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = q.PullOrWait(PolicyFirst, func(TaskInfo) {}, nil)
	require.NoError(t, err)

	q.Close()
	require.NoError(t, q.Release(id))

	snap, ok := q.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatePending, snap.State)
	assert.Equal(t, 1, q.Stats().Pending)
}

func TestRelease_HandsToParkedWorker(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = q.PullOrWait(PolicyFirst, func(TaskInfo) {}, nil)
	require.NoError(t, err)

	parked := &pullRecorder{}
	_, err = q.PullOrWait(PolicyFirst, parked.onTask, parked.onTimeout)
	require.NoError(t, err)

	require.NoError(t, q.Release(id))
	tasks, _ := parked.counts()
	require.Equal(t, 1, tasks)
	assert.Equal(t, id, parked.tasks[0].ID)
	assert.Equal(t, 0, q.Stats().Pending)
}

func TestEvictResolved(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	q := newTestQueue(t, WithClock(clock))

	old, err := q.Submit("old", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NoError(t, q.DispatchResult(old, json.RawMessage(`{}`)))

	advance(time.Hour)
	fresh, err := q.Submit("fresh", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NoError(t, q.DispatchResult(fresh, json.RawMessage(`{}`)))
	_, err = q.Submit("open", json.RawMessage(`{}`))
	require.NoError(t, err)

	evicted := q.EvictResolved(clock().Add(-30 * time.Minute))
	assert.Equal(t, 1, evicted)

	_, ok := q.Get("old")
	assert.False(t, ok)
	_, ok = q.Get("fresh")
	assert.True(t, ok)
	_, ok = q.Get("open")
	assert.True(t, ok)
}

func TestClose_ReleasesParkedRequests(t *testing.T) {
	q := newTestQueue(t)

	id, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = q.PullOrWait(PolicyFirst, func(TaskInfo) {}, nil)
	require.NoError(t, err)

	worker := &pullRecorder{}
	_, err = q.PullOrWait(PolicyFirst, worker.onTask, worker.onTimeout)
	require.NoError(t, err)
	result := &resultRecorder{}
	_, err = q.PullOrWaitResult(id, result.onOutput, result.onTimeout)
	require.NoError(t, err)

	q.Close()
	q.Close()

	_, timeouts := worker.counts()
	assert.Equal(t, 1, timeouts)
	_, timeouts = result.counts()
	assert.Equal(t, 1, timeouts)

	_, err = q.Submit("", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrQueueClosed)
	_, err = q.PullOrWait(PolicyFirst, worker.onTask, worker.onTimeout)
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.DispatchResult(id, json.RawMessage(`{}`)), ErrQueueClosed)

	stats := q.Stats()
	assert.True(t, stats.Closed)
	assert.Zero(t, stats.ParkedWorkers)
	assert.Zero(t, stats.ParkedListeners)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "first", want: PolicyFirst},
		{in: "", want: PolicyFirst},
		{in: "random", want: PolicyRandom},
		{in: "any", want: PolicyRandom},
		{in: "lifo", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidPolicy))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateReject, p)

	p, err = ParseDuplicatePolicy("overwrite")
	require.NoError(t, err)
	assert.Equal(t, DuplicateOverwrite, p)

	_, err = ParseDuplicatePolicy("namespace")
	assert.Error(t, err)
}
