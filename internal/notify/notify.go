// Package notify delivers the short status messages a user sees when
// starting or stopping a capture session, or when a capture fails.
package notify

import (
	"sync"

	"github.com/ncruces/zenity"

	"timelens/internal/logger"
)

type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}

type Reporter interface {
	Report(level Level, msg string)
}

// Desktop logs every report and, when enabled, pops a desktop notification.
type Desktop struct {
	mu       sync.Mutex
	enabled  bool
	onReport func(Level, string)
}

func NewDesktop(enabled bool) *Desktop {
	return &Desktop{enabled: enabled}
}

func (d *Desktop) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	d.mu.Unlock()
}

// OnReport registers fn to be called after every report, e.g. to refresh the tray tooltip.
func (d *Desktop) OnReport(fn func(Level, string)) {
	d.mu.Lock()
	d.onReport = fn
	d.mu.Unlock()
}

func (d *Desktop) Report(level Level, msg string) {
	switch level {
	case Info:
		logger.Info(msg)
	case Warning:
		logger.Warn(msg)
	default:
		logger.Error(msg)
	}

	d.mu.Lock()
	enabled := d.enabled
	hook := d.onReport
	d.mu.Unlock()

	if hook != nil {
		hook(level, msg)
	}
	if !enabled {
		return
	}

	icon := zenity.InfoIcon
	switch level {
	case Warning:
		icon = zenity.WarningIcon
	case Error:
		icon = zenity.ErrorIcon
	}
	if err := zenity.Notify(msg, zenity.Title("timelens"), icon); err != nil {
		logger.Debug("Desktop notification failed", "error", err)
	}
}

// Log is a Reporter for headless use; it only writes to the log.
type Log struct{}

func (Log) Report(level Level, msg string) {
	switch level {
	case Info:
		logger.Info(msg)
	case Warning:
		logger.Warn(msg)
	default:
		logger.Error(msg)
	}
}

// Recorder keeps every report in memory.
type Recorder struct {
	mu      sync.Mutex
	Entries []Entry
}

type Entry struct {
	Level Level
	Msg   string
}

func (r *Recorder) Report(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Entry{Level: level, Msg: msg})
}

func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Entries) == 0 {
		return Entry{}, false
	}
	return r.Entries[len(r.Entries)-1], true
}

func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
