package core

// run_limiter.go serializes reconciliation runs.
//
// Every run rewrites the full tables, so two runs overlapping would lose the
// rows of whichever committed first. The limiter holds a single slot; a second
// run waits up to maxWait before failing with ErrTooManyRuns.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyRuns is returned when a run could not start because another one
// held the slot for longer than the wait timeout.
var ErrTooManyRuns = errors.New("too many runs: another reconciliation is in progress")

// DefaultRunWait is how long a run waits for the slot before giving up.
const DefaultRunWait = 30 * time.Second

// RunLimiter admits one run at a time.
type RunLimiter struct {
	slot    chan struct{}
	maxWait time.Duration

	mu      sync.RWMutex
	active  bool
	started time.Time
}

// NewRunLimiter creates a limiter. A non-positive maxWait uses DefaultRunWait.
func NewRunLimiter(maxWait time.Duration) *RunLimiter {
	if maxWait <= 0 {
		maxWait = DefaultRunWait
	}
	return &RunLimiter{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire blocks until the slot is free, ctx is done, or maxWait elapses.
// The caller must call Release after a nil return.
func (l *RunLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slot <- struct{}{}:
		l.markActive(true)
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyRuns
	}
}

// TryAcquire takes the slot if it is free.
func (l *RunLimiter) TryAcquire() bool {
	select {
	case l.slot <- struct{}{}:
		l.markActive(true)
		return true
	default:
		return false
	}
}

// Release frees the slot.
func (l *RunLimiter) Release() {
	l.markActive(false)
	<-l.slot
}

func (l *RunLimiter) markActive(active bool) {
	l.mu.Lock()
	l.active = active
	if active {
		l.started = time.Now()
	} else {
		l.started = time.Time{}
	}
	l.mu.Unlock()
}

// WaitForDrain blocks until no run is active or ctx is done. Used on shutdown.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !l.Status().Active {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunLimiterStatus is a snapshot of the limiter.
type RunLimiterStatus struct {
	Active  bool      `json:"active"`
	Started time.Time `json:"started,omitzero"`
}

// Status returns the limiter's current state.
func (l *RunLimiter) Status() RunLimiterStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return RunLimiterStatus{Active: l.active, Started: l.started}
}
