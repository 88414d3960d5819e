package queue

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aatumaykin/taskpoll/internal/logger"
)

// DefaultPollingInterval is how long a pull or poll stays parked.
const DefaultPollingInterval = 30 * time.Second

// DuplicatePolicy decides what happens when a caller submits an id that
// is already in the catalog.
type DuplicatePolicy string

const (
	DuplicateReject    DuplicatePolicy = "reject"
	DuplicateOverwrite DuplicatePolicy = "overwrite"
)

// ParseDuplicatePolicy converts a configuration value.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicateReject:
		return DuplicateReject, nil
	case DuplicateOverwrite:
		return DuplicateOverwrite, nil
	default:
		return "", fmt.Errorf("invalid duplicate policy: %s (expected: reject, overwrite)", s)
	}
}

// Option configures a Queue.
type Option func(*Queue)

// WithPollingInterval sets how long parked requests wait. Non-positive
// values keep the default.
func WithPollingInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.interval = d
		}
	}
}

// WithRandSource makes random selection reproducible.
func WithRandSource(src rand.Source) Option {
	return func(q *Queue) {
		if src != nil {
			q.rng = rand.New(src)
		}
	}
}

// WithSeed is WithRandSource over a PCG generator.
func WithSeed(seed uint64) Option {
	return WithRandSource(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(q *Queue) {
		q.duplicates = p
	}
}

func WithMetrics(m Metrics) Option {
	return func(q *Queue) {
		if m != nil {
			q.metrics = m
		}
	}
}

// WithIDGenerator replaces uuid based ids for tasks submitted without one.
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) {
		if fn != nil {
			q.newID = fn
		}
	}
}

// WithClock replaces time.Now for record timestamps. Timers still run on
// the wall clock.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithLogger replaces the logger passed to New.
func WithLogger(log *logger.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.logger = log
		}
	}
}
