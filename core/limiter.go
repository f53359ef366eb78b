package core

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// RateLimiter is a token bucket bounding outbound model calls over a sliding
// one-minute window. The bucket refills continuously at capacity tokens per
// 60 seconds, capped at capacity; tokens are real-valued so requests and
// capacity need not divide evenly.
//
// A single RateLimiter is shared across all concurrent runs and is guarded by
// a mutex. Waits are proportional to the token deficit, never a flat delay.
type RateLimiter struct {
	capacity   float64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a bucket sized to requestsPerMinute, starting full.
// Capacities below 1 are clamped to 1 so a single-call acquisition is always
// satisfiable.
func NewRateLimiter(requestsPerMinute float64) *RateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	return &RateLimiter{
		capacity:   requestsPerMinute,
		tokens:     requestsPerMinute,
		lastRefill: time.Now(),
	}
}

// Capacity returns the bucket capacity (requests per minute).
func (rl *RateLimiter) Capacity() float64 { return rl.capacity }

// Tokens returns the currently available tokens after applying refill.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked(time.Now())
	return rl.tokens
}

// Acquire removes n tokens from the bucket, suspending the caller until
// enough tokens have accrued. Because other acquirers may consume tokens
// while we sleep, the deficit is re-checked after every wait rather than
// assuming a single sleep suffices.
//
// Requests for more than the bucket can ever hold fail immediately: under the
// never-exceed-capacity invariant they could never be satisfied, and silently
// waiting would starve the caller forever. Callers must cap per-call requests
// at Capacity.
func (rl *RateLimiter) Acquire(ctx context.Context, n float64) error {
	if n <= 0 {
		return nil
	}
	if n > rl.capacity {
		return fmt.Errorf("cannot acquire %.2f tokens from a bucket of capacity %.2f", n, rl.capacity)
	}

	for {
		rl.mu.Lock()
		rl.refillLocked(time.Now())
		if rl.tokens >= n {
			rl.tokens -= n
			rl.mu.Unlock()
			return nil
		}
		deficit := n - rl.tokens
		rl.mu.Unlock()

		wait := time.Duration(deficit / rl.capacity * 60 * float64(time.Second))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refillLocked accrues tokens for the elapsed wall time. Caller holds mu.
func (rl *RateLimiter) refillLocked(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	rl.tokens = math.Min(rl.capacity, rl.tokens+elapsed/60*rl.capacity)
	rl.lastRefill = now
}
