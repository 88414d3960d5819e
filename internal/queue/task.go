// Package queue implements an in-memory long-polling task queue.
//
// Producers submit tasks and later poll for their output. Workers pull
// tasks; when nothing is pending their request is parked until a task
// arrives or the polling interval elapses, after which the caller is
// expected to retry. Every parked request ends exactly once: fulfilled,
// timed out or cancelled by its caller.
package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the lifecycle stage of a task.
type State string

const (
	StatePending  State = "pending"  // submitted, not yet handed to a worker
	StateClaimed  State = "claimed"  // handed to a worker, no output yet
	StateResolved State = "resolved" // output dispatched
)

// Policy selects which pending task a worker pull receives.
type Policy string

const (
	PolicyFirst  Policy = "first"  // earliest submitted task
	PolicyRandom Policy = "random" // uniform draw over pending tasks
)

// ParsePolicy converts a user supplied policy name. "any" is accepted as
// an alias of random.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "first":
		return PolicyFirst, nil
	case "random", "any":
		return PolicyRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

func (p Policy) valid() bool {
	return p == PolicyFirst || p == PolicyRandom
}

// TaskInfo is what a worker receives for a claimed task.
type TaskInfo struct {
	ID    string          `json:"id"`
	Input json.RawMessage `json:"input"`
}

// Snapshot is a point-in-time copy of a task record.
type Snapshot struct {
	ID         string          `json:"id"`
	State      State           `json:"state"`
	Input      json.RawMessage `json:"input"`
	Output     json.RawMessage `json:"output,omitempty"`
	Listeners  int             `json:"listeners"`
	CreatedAt  time.Time       `json:"created_at"`
	ClaimedAt  *time.Time      `json:"claimed_at,omitempty"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}

// task is owned by the catalog. The pending list and the listener
// registry only hold references to it.
type task struct {
	id     string
	input  json.RawMessage
	output json.RawMessage
	state  State

	createdAt  time.Time
	claimedAt  time.Time
	resolvedAt time.Time

	listeners []*listener
}

func newTask(id string, input json.RawMessage, now time.Time) *task {
	return &task{
		id:        id,
		input:     input,
		state:     StatePending,
		createdAt: now,
	}
}

func (t *task) info() TaskInfo {
	return TaskInfo{ID: t.id, Input: t.input}
}

func (t *task) claim(now time.Time) {
	t.state = StateClaimed
	t.claimedAt = now
}

func (t *task) unclaim() {
	t.state = StatePending
	t.claimedAt = time.Time{}
}

// resolve stores output and detaches the current listeners, which the
// caller must notify.
func (t *task) resolve(output json.RawMessage, now time.Time) []*listener {
	t.output = output
	t.state = StateResolved
	t.resolvedAt = now

	flushed := t.listeners
	t.listeners = nil
	return flushed
}

func (t *task) addListener(l *listener) {
	t.listeners = append(t.listeners, l)
}

func (t *task) removeListener(l *listener) bool {
	for i, cur := range t.listeners {
		if cur == l {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (t *task) snapshot() Snapshot {
	s := Snapshot{
		ID:        t.id,
		State:     t.state,
		Input:     t.input,
		Output:    t.output,
		Listeners: len(t.listeners),
		CreatedAt: t.createdAt,
	}
	if !t.claimedAt.IsZero() {
		claimedAt := t.claimedAt
		s.ClaimedAt = &claimedAt
	}
	if !t.resolvedAt.IsZero() {
		resolvedAt := t.resolvedAt
		s.ResolvedAt = &resolvedAt
	}
	return s
}
