// Package timer provides the two scheduling primitives captures run on:
// a declarative timer whose callback returns the delay until its next
// run, and a modal ticker that delivers ticks until cancelled.
//
// Every callback registered on one Loop runs while holding the loop's
// mutex, so callbacks never overlap and are never re-entered.
package timer

import (
	"errors"
	"sync"
	"time"
)

var ErrStopped = errors.New("timer already stopped")

// Func is a declarative timer callback. It returns the delay until the
// next call and whether it wants to be called again.
type Func func() (next time.Duration, again bool)

type Handle interface {
	Stop() error
}

// Registrar is implemented by Loop and by test fakes.
type Registrar interface {
	Register(first time.Duration, fn Func) Handle
	Ticks(d time.Duration) (<-chan time.Time, func())
}

type Loop struct {
	run sync.Mutex
}

func NewLoop() *Loop {
	return &Loop{}
}

type handle struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
}

// Register arms fn to run after first and keeps re-arming it with the
// delay it returns until it returns again=false or the handle is stopped.
func (l *Loop) Register(first time.Duration, fn Func) Handle {
	h := &handle{}

	var tick func()
	tick = func() {
		l.run.Lock()
		defer l.run.Unlock()

		h.mu.Lock()
		if h.stopped {
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()

		next, again := fn()

		h.mu.Lock()
		defer h.mu.Unlock()
		if h.stopped {
			return
		}
		if !again {
			h.stopped = true
			return
		}
		h.t = time.AfterFunc(next, tick)
	}

	h.mu.Lock()
	h.t = time.AfterFunc(first, tick)
	h.mu.Unlock()
	return h
}

func (h *handle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return ErrStopped
	}
	h.stopped = true
	if h.t != nil {
		h.t.Stop()
	}
	return nil
}

// Ticks returns a channel receiving a tick every d until stop is called.
// Ticks are dropped rather than queued when the receiver is busy.
func (l *Loop) Ticks(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	return ticker.C, ticker.Stop
}
