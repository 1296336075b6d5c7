package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_RearmsUntilCallbackDeclines(t *testing.T) {
	loop := NewLoop()
	var calls atomic.Int32

	h := loop.Register(time.Millisecond, func() (time.Duration, bool) {
		n := calls.Add(1)
		return time.Millisecond, n < 3
	})

	require.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
	assert.ErrorIs(t, h.Stop(), ErrStopped, "callback returning false disarms the handle")
}

func TestRegister_StopPreventsFiring(t *testing.T) {
	loop := NewLoop()
	var calls atomic.Int32

	h := loop.Register(50*time.Millisecond, func() (time.Duration, bool) {
		calls.Add(1)
		return time.Millisecond, true
	})

	require.NoError(t, h.Stop())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.ErrorIs(t, h.Stop(), ErrStopped)
}

func TestRegister_CallbacksNeverOverlap(t *testing.T) {
	loop := NewLoop()
	var inFlight, maxInFlight, calls atomic.Int32

	cb := func() (time.Duration, bool) {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return time.Millisecond, calls.Add(1) < 20
	}

	h1 := loop.Register(time.Millisecond, cb)
	h2 := loop.Register(time.Millisecond, cb)
	defer h1.Stop()
	defer h2.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 20 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestTicks(t *testing.T) {
	loop := NewLoop()
	ticks, stop := loop.Ticks(time.Millisecond)
	defer stop()

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("no tick delivered")
	}
}
