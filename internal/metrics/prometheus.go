// Package metrics exposes queue activity as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/aatumaykin/taskpoll/internal/queue"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements queue.Metrics.
type PrometheusMetrics struct {
	tasksSubmitted  prometheus.Counter
	tasksClaimed    prometheus.Counter
	tasksResolved   prometheus.Counter
	tasksRemoved    *prometheus.CounterVec
	waitsExpired    *prometheus.CounterVec
	waitsCancelled  *prometheus.CounterVec
	callbackPanics  prometheus.Counter
	claimLatency    prometheus.Histogram
	pendingTasks    prometheus.Gauge
	parkedWorkers   prometheus.Gauge
	parkedListeners prometheus.Gauge
}

var _ queue.Metrics = (*PrometheusMetrics)(nil)

// New creates the collectors and registers them with reg, or with the
// default registerer when reg is nil.
func New(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		tasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total number of submitted tasks",
		}),
		tasksClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_claimed_total",
			Help:      "Total number of tasks handed to workers",
		}),
		tasksResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_resolved_total",
			Help:      "Total number of dispatched results",
		}),
		tasksRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_removed_total",
			Help:      "Tasks removed from the catalog",
		}, []string{"reason"}),
		waitsExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waits_expired_total",
			Help:      "Parked requests that reached the polling interval",
		}, []string{"kind"}),
		waitsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waits_cancelled_total",
			Help:      "Parked requests dropped because the caller went away",
		}, []string{"kind"}),
		callbackPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_panics_total",
			Help:      "Recovered panics in delivery callbacks",
		}),
		claimLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "claim_latency_seconds",
			Help:      "Time between task submission and hand-off to a worker",
			Buckets:   []float64{.001, .01, .1, .5, 1, 5, 30, 60, 300},
		}),
		pendingTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_tasks",
			Help:      "Tasks waiting for a worker",
		}),
		parkedWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parked_workers",
			Help:      "Worker pulls waiting for a task",
		}),
		parkedListeners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parked_listeners",
			Help:      "Result polls waiting for output",
		}),
	}

	reg.MustRegister(
		m.tasksSubmitted,
		m.tasksClaimed,
		m.tasksResolved,
		m.tasksRemoved,
		m.waitsExpired,
		m.waitsCancelled,
		m.callbackPanics,
		m.claimLatency,
		m.pendingTasks,
		m.parkedWorkers,
		m.parkedListeners,
	)

	return m
}

func (m *PrometheusMetrics) TaskSubmitted() {
	m.tasksSubmitted.Inc()
}

func (m *PrometheusMetrics) TaskClaimed(wait time.Duration) {
	m.tasksClaimed.Inc()
	m.claimLatency.Observe(wait.Seconds())
}

func (m *PrometheusMetrics) TaskResolved() {
	m.tasksResolved.Inc()
}

func (m *PrometheusMetrics) TasksRemoved(reason string, n int) {
	m.tasksRemoved.WithLabelValues(reason).Add(float64(n))
}

func (m *PrometheusMetrics) WaitExpired(kind queue.WaitKind) {
	m.waitsExpired.WithLabelValues(string(kind)).Inc()
}

func (m *PrometheusMetrics) WaitCancelled(kind queue.WaitKind) {
	m.waitsCancelled.WithLabelValues(string(kind)).Inc()
}

func (m *PrometheusMetrics) CallbackPanicked() {
	m.callbackPanics.Inc()
}

func (m *PrometheusMetrics) SetDepth(d queue.Depth) {
	m.pendingTasks.Set(float64(d.Pending))
	m.parkedWorkers.Set(float64(d.ParkedWorkers))
	m.parkedListeners.Set(float64(d.ParkedListeners))
}
