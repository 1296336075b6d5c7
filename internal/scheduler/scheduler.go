// Package scheduler runs a capture session: one immediate capture on
// Start, then one per interval until Stop or Unload.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"timelens/internal/capture"
	"timelens/internal/config"
	"timelens/internal/logger"
	"timelens/internal/notify"
	"timelens/internal/timer"
)

type Capturer interface {
	Ready() error
	Capture(ctx context.Context) (*capture.Result, error)
}

type Options struct {
	Capturer Capturer
	Timers   timer.Registrar
	Reporter notify.Reporter
	// Interval is read on every declarative fire, so a changed setting
	// applies from the next capture on. The modal trigger reads it once
	// at Start.
	Interval func() time.Duration
	// Trigger returns config.TriggerTimer or config.TriggerModal; read at Start.
	Trigger func() string
	// OnCapture, if set, is called after every successful capture.
	OnCapture func(*capture.Result)
}

type Scheduler struct {
	opts Options

	mu        sync.Mutex
	state     State
	session   string
	handle    timer.Handle
	stopModal func()

	captureMu sync.Mutex
}

func New(opts Options) *Scheduler {
	if opts.Reporter == nil {
		opts.Reporter = notify.Log{}
	}
	if opts.Timers == nil {
		opts.Timers = timer.NewLoop()
	}
	if opts.Interval == nil {
		opts.Interval = config.Default().Interval
	}
	if opts.Trigger == nil {
		opts.Trigger = func() string { return config.TriggerTimer }
	}
	return &Scheduler{opts: opts}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session returns the ID of the running session, or "" when idle.
func (s *Scheduler) Session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Start captures once and arms the periodic trigger.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.opts.Capturer.Ready(); err != nil {
		s.opts.Reporter.Report(notify.Warning, "Save the document first or set an output directory.")
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	s.mu.Lock()
	to, err := next(s.state, EventStart)
	if err != nil {
		s.mu.Unlock()
		s.opts.Reporter.Report(notify.Warning, "timelens is already running.")
		return err
	}

	session := uuid.NewString()
	interval := s.opts.Interval()

	s.state = to
	s.session = session
	if s.opts.Trigger() == config.TriggerModal {
		s.armModal(session, interval)
	} else {
		s.handle = s.opts.Timers.Register(interval, func() (time.Duration, bool) {
			return s.fire(session)
		})
	}
	s.mu.Unlock()

	logger.Info("Capture session started", "session", session, "interval", interval)
	res, capErr := s.capture(ctx, session)
	if errors.Is(capErr, errStale) {
		return nil
	}
	s.afterCapture(res, capErr)
	s.opts.Reporter.Report(notify.Info, fmt.Sprintf("timelens started. Next capture in %s.", formatInterval(interval)))
	return nil
}

// Stop disarms the trigger. Stopping an idle scheduler is a no-op that
// returns ErrNotRunning.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	to, err := next(s.state, EventStop)
	if err != nil {
		s.mu.Unlock()
		s.opts.Reporter.Report(notify.Warning, "timelens is not running.")
		return err
	}
	session := s.session
	s.state = to
	s.session = ""
	s.disarmLocked()
	s.mu.Unlock()

	logger.Info("Capture session stopped", "session", session)
	s.opts.Reporter.Report(notify.Info, "timelens stopped.")
	return nil
}

// Unload forces the scheduler idle during shutdown. Disarm errors are
// logged and discarded; it is safe to call whether or not a session runs.
func (s *Scheduler) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, _ := next(s.state, EventUnload)
	if s.state == Running {
		logger.Info("Capture session unloaded", "session", s.session)
	}
	s.state = to
	s.session = ""
	s.disarmLocked()
}

func (s *Scheduler) disarmLocked() {
	if s.handle != nil {
		if err := s.handle.Stop(); err != nil && !errors.Is(err, timer.ErrStopped) {
			logger.Debug("Timer disarm failed", "error", err)
		}
		s.handle = nil
	}
	if s.stopModal != nil {
		s.stopModal()
		s.stopModal = nil
	}
}

// fire is the declarative timer callback. A callback from a session that
// is no longer running captures nothing and disarms itself.
func (s *Scheduler) fire(session string) (time.Duration, bool) {
	if !s.active(session) {
		logger.Debug("Discarding stale timer callback", "session", session)
		return 0, false
	}

	res, err := s.capture(context.Background(), session)
	if errors.Is(err, errStale) {
		logger.Debug("Session stopped before capture", "session", session)
		return 0, false
	}
	s.afterCapture(res, err)
	return s.opts.Interval(), true
}

func (s *Scheduler) armModal(session string, interval time.Duration) {
	ticks, stop := s.opts.Timers.Ticks(interval)
	done := make(chan struct{})
	s.stopModal = func() {
		stop()
		close(done)
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticks:
				if !s.active(session) {
					return
				}
				res, err := s.capture(context.Background(), session)
				if errors.Is(err, errStale) {
					return
				}
				s.afterCapture(res, err)
			}
		}
	}()
}

func (s *Scheduler) active(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := next(s.state, EventFire); err != nil {
		return false
	}
	return s.session == session
}

// capture runs one capture for session. The session is checked again
// once captureMu is held, so a Stop that lands while a capture waits
// for the lock leaves nothing on disk. Lock order is captureMu, then mu.
func (s *Scheduler) capture(ctx context.Context, session string) (*capture.Result, error) {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()
	if !s.active(session) {
		return nil, errStale
	}
	return s.opts.Capturer.Capture(ctx)
}

// afterCapture reports a failed capture. Failures never stop the session.
func (s *Scheduler) afterCapture(res *capture.Result, err error) {
	if err != nil {
		logger.Error("Capture failed", "error", err)
		s.opts.Reporter.Report(notify.Error, fmt.Sprintf("Screenshot failed: %v", err))
		return
	}
	logger.Info("Screenshot saved", "path", res.Path)
	if s.opts.OnCapture != nil {
		s.opts.OnCapture(res)
	}
}

func formatInterval(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 min"
		}
		return fmt.Sprintf("%d min", m)
	}
	return d.String()
}
