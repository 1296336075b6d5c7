//go:build windows

package instance

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

type mutexLock struct {
	h windows.Handle
}

// Acquire creates a named global mutex; name is usually "timelens".
func Acquire(name string) (Lock, error) {
	mutexName, err := windows.UTF16PtrFromString(`Global\` + name + "-SingleInstance-Mutex")
	if err != nil {
		return nil, fmt.Errorf("failed to create mutex name: %w", err)
	}

	h, err := windows.CreateMutex(nil, false, mutexName)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if h != 0 {
				windows.CloseHandle(h)
			}
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("failed to create mutex: %w", err)
	}
	return &mutexLock{h: h}, nil
}

func (l *mutexLock) Release() error {
	return windows.CloseHandle(l.h)
}
