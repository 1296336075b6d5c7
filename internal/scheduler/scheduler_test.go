package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelens/internal/capture"
	"timelens/internal/config"
	"timelens/internal/notify"
	"timelens/internal/timer"
)

type fakeCapturer struct {
	mu       sync.Mutex
	notReady bool
	fail     bool
	count    int
}

func (c *fakeCapturer) Ready() error {
	if c.notReady {
		return capture.ErrNoDocument
	}
	return nil
}

func (c *fakeCapturer) Capture(context.Context) (*capture.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if c.fail {
		return nil, &capture.CaptureError{Path: "/x.png", Err: errors.New("boom")}
	}
	return &capture.Result{Path: fmt.Sprintf("/shots/%d.png", c.count), Time: time.Now()}, nil
}

func (c *fakeCapturer) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

type registration struct {
	first time.Duration
	fn    timer.Func
	h     *fakeHandle
}

type fakeHandle struct {
	stopped bool
}

func (h *fakeHandle) Stop() error {
	if h.stopped {
		return timer.ErrStopped
	}
	h.stopped = true
	return nil
}

// fakeTimers records registrations; tests drive the callbacks by hand.
type fakeTimers struct {
	regs    []*registration
	ticks   chan time.Time
	tickDur time.Duration
	stopped bool
}

func (f *fakeTimers) Register(first time.Duration, fn timer.Func) timer.Handle {
	r := &registration{first: first, fn: fn, h: &fakeHandle{}}
	f.regs = append(f.regs, r)
	return r.h
}

func (f *fakeTimers) Ticks(d time.Duration) (<-chan time.Time, func()) {
	f.tickDur = d
	f.ticks = make(chan time.Time)
	return f.ticks, func() { f.stopped = true }
}

func newTestScheduler(c *fakeCapturer, minutes *int) (*Scheduler, *fakeTimers, *notify.Recorder) {
	timers := &fakeTimers{}
	rec := &notify.Recorder{}
	s := New(Options{
		Capturer: c,
		Timers:   timers,
		Reporter: rec,
		Interval: func() time.Duration { return time.Duration(*minutes) * time.Minute },
	})
	return s, timers, rec
}

func TestStart_CapturesImmediatelyAndArms(t *testing.T) {
	c := &fakeCapturer{}
	minutes := 10
	s, timers, rec := newTestScheduler(c, &minutes)

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, Running, s.State())
	assert.NotEmpty(t, s.Session())
	assert.Equal(t, 1, c.Count())
	require.Len(t, timers.regs, 1)
	assert.Equal(t, 10*time.Minute, timers.regs[0].first)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Info, last.Level)
	assert.Equal(t, "timelens started. Next capture in 10 min.", last.Msg)
}

func TestFire_RearmsWithConfiguredInterval(t *testing.T) {
	for n := 1; n <= 10; n++ {
		t.Run(fmt.Sprintf("%d minutes", n), func(t *testing.T) {
			c := &fakeCapturer{}
			minutes := n
			s, timers, _ := newTestScheduler(c, &minutes)
			require.NoError(t, s.Start(context.Background()))

			require.Len(t, timers.regs, 1)
			assert.Equal(t, time.Duration(n*60)*time.Second, timers.regs[0].first)

			next, again := timers.regs[0].fn()
			assert.True(t, again)
			assert.Equal(t, time.Duration(n*60)*time.Second, next)
			assert.Equal(t, 2, c.Count())
		})
	}
}

func TestFire_PicksUpIntervalChangeOnNextTick(t *testing.T) {
	c := &fakeCapturer{}
	minutes := 5
	s, timers, _ := newTestScheduler(c, &minutes)
	require.NoError(t, s.Start(context.Background()))

	minutes = 2
	next, again := timers.regs[0].fn()
	assert.True(t, again)
	assert.Equal(t, 2*time.Minute, next)
}

func TestStart_TwiceReturnsAlreadyRunning(t *testing.T) {
	c := &fakeCapturer{}
	minutes := 1
	s, timers, rec := newTestScheduler(c, &minutes)

	require.NoError(t, s.Start(context.Background()))
	err := s.Start(context.Background())

	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Len(t, timers.regs, 1, "second start must not arm another timer")
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 1, rec.Count(notify.Warning))
}

func TestStop_WhenIdleReturnsNotRunning(t *testing.T) {
	c := &fakeCapturer{}
	minutes := 1
	s, timers, rec := newTestScheduler(c, &minutes)

	err := s.Stop()

	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, timers.regs)
	assert.Equal(t, 0, c.Count())
	last, _ := rec.Last()
	assert.Equal(t, notify.Warning, last.Level)
}

func TestStart_NotReadyPerformsNoCapture(t *testing.T) {
	c := &fakeCapturer{notReady: true}
	minutes := 1
	s, timers, _ := newTestScheduler(c, &minutes)

	err := s.Start(context.Background())

	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, capture.ErrNoDocument)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, c.Count())
	assert.Empty(t, timers.regs)
}

func TestStop_StaleCallbackCapturesNothing(t *testing.T) {
	c := &fakeCapturer{}
	minutes := 3
	s, timers, _ := newTestScheduler(c, &minutes)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())

	assert.True(t, timers.regs[0].h.stopped)

	next, again := timers.regs[0].fn()
	assert.False(t, again)
	assert.Zero(t, next)
	assert.Equal(t, 1, c.Count())
}

func TestStaleCallbackFromPreviousSessionIsIgnored(t *testing.T) {
	c := &fakeCapturer{}
	minutes := 3
	s, timers, _ := newTestScheduler(c, &minutes)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Start(context.Background()))
	require.Len(t, timers.regs, 2)

	_, again := timers.regs[0].fn()
	assert.False(t, again)
	assert.Equal(t, 2, c.Count())

	_, again = timers.regs[1].fn()
	assert.True(t, again)
	assert.Equal(t, 3, c.Count())
}

func TestStop_WhileFireWaitsForCaptureLock(t *testing.T) {
	c := &fakeCapturer{}
	minutes := 3
	s, timers, _ := newTestScheduler(c, &minutes)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, 1, c.Count())

	s.captureMu.Lock()
	done := make(chan bool)
	go func() {
		_, again := timers.regs[0].fn()
		done <- again
	}()
	// Let the callback pass its first session check and block on the lock.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Stop())
	s.captureMu.Unlock()

	select {
	case again := <-done:
		assert.False(t, again)
	case <-time.After(time.Second):
		t.Fatal("timer callback did not return")
	}
	assert.Equal(t, 1, c.Count())
}

func TestCaptureFailureKeepsSchedule(t *testing.T) {
	c := &fakeCapturer{fail: true}
	minutes := 1
	s, timers, rec := newTestScheduler(c, &minutes)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, Running, s.State())

	_, again := timers.regs[0].fn()
	assert.True(t, again)
	assert.Equal(t, 2, rec.Count(notify.Error))
}

func TestUnload(t *testing.T) {
	c := &fakeCapturer{}
	minutes := 1
	s, timers, _ := newTestScheduler(c, &minutes)

	assert.NotPanics(t, s.Unload, "unload when never started")

	require.NoError(t, s.Start(context.Background()))
	timers.regs[0].h.stopped = true // already disarmed; error must be swallowed
	s.Unload()

	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.Session())
	_, again := timers.regs[0].fn()
	assert.False(t, again)
}

func TestOnCapture(t *testing.T) {
	c := &fakeCapturer{}
	var got []string
	s := New(Options{
		Capturer:  c,
		Timers:    &fakeTimers{},
		Reporter:  &notify.Recorder{},
		Interval:  func() time.Duration { return time.Minute },
		OnCapture: func(r *capture.Result) { got = append(got, r.Path) },
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"/shots/1.png"}, got)
}

func TestModalTrigger(t *testing.T) {
	c := &fakeCapturer{}
	timers := &fakeTimers{}
	s := New(Options{
		Capturer: c,
		Timers:   timers,
		Reporter: &notify.Recorder{},
		Interval: func() time.Duration { return 4 * time.Minute },
		Trigger:  func() string { return config.TriggerModal },
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Empty(t, timers.regs)
	assert.Equal(t, 4*time.Minute, timers.tickDur)

	timers.ticks <- time.Now()
	timers.ticks <- time.Now()
	require.Eventually(t, func() bool { return c.Count() == 3 }, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
	assert.True(t, timers.stopped)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from State
		ev   Event
		to   State
		err  error
	}{
		{Idle, EventStart, Running, nil},
		{Idle, EventStop, Idle, ErrNotRunning},
		{Idle, EventUnload, Idle, nil},
		{Running, EventStart, Running, ErrAlreadyRunning},
		{Running, EventFire, Running, nil},
		{Running, EventStop, Idle, nil},
		{Running, EventUnload, Idle, nil},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.ev.String(), func(t *testing.T) {
			to, err := next(tt.from, tt.ev)
			assert.Equal(t, tt.to, to)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := next(Idle, EventFire)
	assert.Error(t, err)
}

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "1 min", formatInterval(time.Minute))
	assert.Equal(t, "7 min", formatInterval(7*time.Minute))
	assert.Equal(t, "1m30s", formatInterval(90*time.Second))
}
