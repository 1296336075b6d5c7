// Package instance keeps a second tray process from starting.
package instance

import "errors"

var ErrAlreadyRunning = errors.New("another instance of timelens is already running")

// Lock is held for the lifetime of the process and released by Release.
type Lock interface {
	Release() error
}
