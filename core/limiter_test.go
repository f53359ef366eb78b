package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstWithinCapacity(t *testing.T) {
	rl := NewRateLimiter(10)

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Acquire(context.Background(), 1))
	}
	// A full bucket must admit the first 10 acquisitions without waiting.
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiter_DeficitWaitIsProportional(t *testing.T) {
	if testing.Short() {
		t.Skip("timing sensitive")
	}

	// Capacity 600/min refills at 10 tokens/sec, keeping the measured waits small.
	rl := NewRateLimiter(600)
	require.NoError(t, rl.Acquire(context.Background(), 600)) // drain

	start := time.Now()
	require.NoError(t, rl.Acquire(context.Background(), 5))
	elapsed := time.Since(start)

	// Deficit of 5 tokens at 10 tokens/sec: roughly 500ms, never a flat minute.
	assert.Greater(t, elapsed, 300*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestRateLimiter_AcquireBeyondCapacity(t *testing.T) {
	rl := NewRateLimiter(10)
	err := rl.Acquire(context.Background(), 11)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "capacity")
}

func TestRateLimiter_AcquireZeroIsNoOp(t *testing.T) {
	rl := NewRateLimiter(10)
	assert.NoError(t, rl.Acquire(context.Background(), 0))
	assert.InDelta(t, 10, rl.Tokens(), 0.01)
}

func TestRateLimiter_ContextCancellation(t *testing.T) {
	rl := NewRateLimiter(1)
	require.NoError(t, rl.Acquire(context.Background(), 1)) // drain

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.Acquire(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_CapacityClamped(t *testing.T) {
	rl := NewRateLimiter(0)
	assert.Equal(t, 1.0, rl.Capacity())
}

func TestRateLimiter_RefillIsCapped(t *testing.T) {
	rl := NewRateLimiter(10)
	rl.lastRefill = time.Now().Add(-5 * time.Minute)
	assert.InDelta(t, 10, rl.Tokens(), 0.01)
}
