package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConcurrencyGate_BoundsInFlight(t *testing.T) {
	gate := NewConcurrencyGate(2, 0)

	var inFlight, peak int32
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = gate.RunGated(context.Background(), func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestConcurrencyGate_ReleasesOnError(t *testing.T) {
	gate := NewConcurrencyGate(1, 0)

	err := gate.RunGated(context.Background(), func() error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	// The slot must be free again for the next caller.
	err = gate.RunGated(context.Background(), func() error { return nil })
	assert.NoError(t, err)
}

func TestConcurrencyGate_AdmissionHonorsContext(t *testing.T) {
	gate := NewConcurrencyGate(1, 0)

	release := make(chan struct{})
	go func() {
		_ = gate.RunGated(context.Background(), func() error {
			<-release
			return nil
		})
	}()

	// Wait until the slot is actually occupied.
	for i := 0; i < 100 && gate.InFlight() == 0; i++ {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := gate.RunGated(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestConcurrencyGate_SpacingDelaysReadmission(t *testing.T) {
	gate := NewConcurrencyGate(1, 50*time.Millisecond)

	_ = gate.RunGated(context.Background(), func() error { return nil })

	// Slot is held through the spacing window before it frees.
	assert.Equal(t, 1, gate.InFlight())
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, gate.InFlight())
}

func TestConcurrencyGate_ClampsToOne(t *testing.T) {
	gate := NewConcurrencyGate(0, 0)
	assert.Equal(t, 1, gate.MaxConcurrent())
}
