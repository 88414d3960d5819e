package workers

import (
	"time"
)

// Metrics returns the current pool metrics.
func (p *WorkerPool) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

func (p *WorkerPool) incrementPulled() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics.TasksPulled++
}

// recordOutcome counts one executed task.
func (p *WorkerPool) recordOutcome(failed, reportFailed bool, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if failed {
		p.metrics.TasksFailed++
	} else {
		p.metrics.TasksCompleted++
	}
	if reportFailed {
		p.metrics.ReportsFailed++
	}
	p.metrics.TotalDuration += d
}
