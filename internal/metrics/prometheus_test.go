package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/queue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_FedByQueue(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("taskpoll", reg)

	q := queue.New(logger.NewNop(), queue.WithMetrics(m), queue.WithPollingInterval(20*time.Millisecond))
	defer q.Close()

	first, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tasksSubmitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pendingTasks))

	_, err = q.PullOrWait(queue.PolicyFirst, func(queue.TaskInfo) {}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksClaimed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pendingTasks))

	cancel, err := q.PullOrWaitResult(first, func(json.RawMessage) {}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parkedListeners))
	cancel()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.parkedListeners))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.waitsCancelled.WithLabelValues("result")))

	require.NoError(t, q.DispatchResult(first, json.RawMessage(`{}`)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksResolved))

	assert.True(t, q.Delete(first))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksRemoved.WithLabelValues("deleted")))

	_, err = q.Pull(t.Context(), queue.PolicyFirst)
	require.NoError(t, err)
	_, err = q.Pull(t.Context(), queue.PolicyFirst)
	assert.ErrorIs(t, err, queue.ErrPollTimeout)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.waitsExpired.WithLabelValues("worker")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.parkedWorkers))
}

func TestPrometheusMetrics_CallbackPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("taskpoll", reg)
	q := queue.New(nil, queue.WithMetrics(m))
	defer q.Close()

	_, err := q.Submit("", json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = q.PullOrWait(queue.PolicyFirst, func(queue.TaskInfo) { panic("worker callback") }, nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbackPanics))
}

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	New("taskpoll", reg)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["taskpoll_tasks_submitted_total"])
	assert.True(t, names["taskpoll_pending_tasks"])
	assert.True(t, names["taskpoll_claim_latency_seconds"])

	assert.Panics(t, func() { New("taskpoll", reg) }, "duplicate registration")
}
