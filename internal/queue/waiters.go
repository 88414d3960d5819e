package queue

import (
	"encoding/json"
	"time"
)

// WaitKind tells worker pulls and result polls apart in metrics and logs.
type WaitKind string

const (
	WaitWorker WaitKind = "worker"
	WaitResult WaitKind = "result"
)

// CancelFunc detaches a parked pull or poll. It reports whether this call
// removed the entry; once the entry was fulfilled, expired or cancelled it
// is a no-op returning false. Safe for concurrent use.
type CancelFunc func() bool

func noopCancel() bool { return false }

// waiter is a parked worker pull.
type waiter struct {
	onTask    func(TaskInfo)
	onTimeout func()
	timer     *time.Timer
	parkedAt  time.Time
}

// waiterList is the FIFO of parked worker pulls.
type waiterList struct {
	waiters []*waiter
}

func (l *waiterList) len() int {
	return len(l.waiters)
}

func (l *waiterList) push(w *waiter) {
	l.waiters = append(l.waiters, w)
}

// shift pops the earliest registered waiter and stops its timer.
func (l *waiterList) shift() *waiter {
	if len(l.waiters) == 0 {
		return nil
	}
	w := l.waiters[0]
	l.waiters[0] = nil
	l.waiters = l.waiters[1:]
	w.timer.Stop()
	return w
}

func (l *waiterList) remove(w *waiter) bool {
	for i, cur := range l.waiters {
		if cur == w {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			w.timer.Stop()
			return true
		}
	}
	return false
}

func (l *waiterList) drain() []*waiter {
	drained := l.waiters
	l.waiters = nil
	for _, w := range drained {
		w.timer.Stop()
	}
	return drained
}

// listener is a parked result poll attached to one task.
type listener struct {
	onOutput  func(json.RawMessage)
	onTimeout func()
	timer     *time.Timer
}
