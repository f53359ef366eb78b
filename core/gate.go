package core

import (
	"context"
	"time"
)

// ConcurrencyGate is a counting admission gate bounding how many agent
// invocations may be in flight simultaneously. One gate is shared across all
// concurrent runs for the process lifetime.
//
// After each release the freed slot is held back for a short spacing interval
// before it becomes reusable, smoothing bursty re-admission. The spacing is a
// heuristic, not a correctness requirement.
type ConcurrencyGate struct {
	slots   chan struct{}
	spacing time.Duration
}

// NewConcurrencyGate creates a gate admitting at most maxConcurrent callers,
// with the given inter-task spacing applied after each release. Values of
// maxConcurrent below 1 are clamped to 1.
func NewConcurrencyGate(maxConcurrent int, spacing time.Duration) *ConcurrencyGate {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ConcurrencyGate{
		slots:   make(chan struct{}, maxConcurrent),
		spacing: spacing,
	}
}

// RunGated acquires a slot (suspending while all slots are occupied), invokes
// fn, and releases the slot on every exit path. Admission aborts with the
// context error if ctx is cancelled before a slot frees; fn's own error is
// returned unchanged.
func (g *ConcurrencyGate) RunGated(ctx context.Context, fn func() error) error {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer g.release()

	return fn()
}

// release frees the held slot, deferring the actual hand-back by the spacing
// interval so the next admission is not immediate.
func (g *ConcurrencyGate) release() {
	if g.spacing <= 0 {
		<-g.slots
		return
	}
	time.AfterFunc(g.spacing, func() { <-g.slots })
}

// InFlight returns the number of currently occupied slots (including slots in
// their post-release spacing window).
func (g *ConcurrencyGate) InFlight() int { return len(g.slots) }

// MaxConcurrent returns the gate's slot count.
func (g *ConcurrencyGate) MaxConcurrent() int { return cap(g.slots) }
