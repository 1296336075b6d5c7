package scheduler

import (
	"errors"
	"fmt"
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Event int

const (
	EventStart Event = iota
	EventStop
	EventFire
	EventUnload
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	case EventFire:
		return "fire"
	case EventUnload:
		return "unload"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

var (
	ErrNotReady       = errors.New("no output directory: save the document or configure an output directory")
	ErrAlreadyRunning = errors.New("already running")
	ErrNotRunning     = errors.New("not running")
	errStale          = errors.New("stale timer callback")
)

// transitions lists every allowed move. Anything missing is rejected by next.
var transitions = map[State]map[Event]State{
	Idle: {
		EventStart:  Running,
		EventUnload: Idle,
	},
	Running: {
		EventStop:   Idle,
		EventFire:   Running,
		EventUnload: Idle,
	},
}

func next(from State, ev Event) (State, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	switch ev {
	case EventStart:
		return from, ErrAlreadyRunning
	case EventStop:
		return from, ErrNotRunning
	case EventFire:
		return from, errStale
	}
	return from, fmt.Errorf("no transition from %s on %s", from, ev)
}
