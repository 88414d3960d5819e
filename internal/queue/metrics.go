package queue

import "time"

// Depth describes how much is currently parked or waiting.
type Depth struct {
	Pending         int
	ParkedWorkers   int
	ParkedListeners int
}

// Metrics receives queue events. Implementations must be cheap and safe
// for concurrent use; SetDepth is called with the queue lock held.
type Metrics interface {
	TaskSubmitted()
	TaskClaimed(wait time.Duration)
	TaskResolved()
	TasksRemoved(reason string, n int)
	WaitExpired(kind WaitKind)
	WaitCancelled(kind WaitKind)
	CallbackPanicked()
	SetDepth(d Depth)
}

type nopMetrics struct{}

func (nopMetrics) TaskSubmitted() {}
func (nopMetrics) TaskClaimed(time.Duration) {}
func (nopMetrics) TaskResolved() {}
func (nopMetrics) TasksRemoved(string, int) {}
func (nopMetrics) WaitExpired(WaitKind) {}
func (nopMetrics) WaitCancelled(WaitKind) {}
func (nopMetrics) CallbackPanicked() {}
func (nopMetrics) SetDepth(Depth) {}
