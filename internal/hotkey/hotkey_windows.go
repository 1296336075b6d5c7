//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"timelens/internal/logger"
)

const (
	modAlt      = 0x0001
	modControl  = 0x0002
	modShift    = 0x0004
	modWin      = 0x0008
	modNoRepeat = 0x4000

	wmHotkey = 0x0312
	wmQuit   = 0x0012

	vkSnapshot = 0x2C
	vkF1       = 0x70
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessage         = user32.NewProc("GetMessageW")
	procPostThreadMessage  = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadId = kernel32.NewProc("GetCurrentThreadId")

	hotkeyID = 1

	state struct {
		running  bool
		threadID uint32
		loopExit chan struct{}
	}
	stateMu sync.Mutex
)

type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

func virtualKey(c Combo) (modifiers, vk uint32) {
	modifiers = modNoRepeat
	if c.Ctrl {
		modifiers |= modControl
	}
	if c.Alt {
		modifiers |= modAlt
	}
	if c.Shift {
		modifiers |= modShift
	}
	if c.Win {
		modifiers |= modWin
	}

	switch {
	case c.Key == "PRINTSCREEN":
		vk = vkSnapshot
	case len(c.Key) == 1:
		vk = uint32(c.Key[0]) // 'A'-'Z' and '0'-'9' match their virtual-key codes
	default:
		n, _ := functionKey(c.Key)
		vk = vkF1 + uint32(n-1)
	}
	return modifiers, vk
}

func register(c Combo) error {
	modifiers, vk := virtualKey(c)

	logger.Debug("Registering hotkey", "hotkey", c.String())
	stateMu.Lock()
	state.running = true
	state.loopExit = make(chan struct{})
	exit := state.loopExit
	stateMu.Unlock()

	result := make(chan error, 1)

	// RegisterHotKey binds to the calling thread, so the message loop
	// must run on the same locked OS thread.
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		ret, _, err := procRegisterHotKey.Call(0, uintptr(hotkeyID), uintptr(modifiers), uintptr(vk))
		if ret == 0 {
			stateMu.Lock()
			state.running = false
			stateMu.Unlock()
			result <- fmt.Errorf("failed to register hotkey %s: %v", c, err)
			close(exit)
			return
		}

		logger.Info("Hotkey registered", "hotkey", c.String())
		result <- nil
		messageLoop()
		procUnregisterHotKey.Call(0, uintptr(hotkeyID))
		close(exit)
	}()

	return <-result
}

func messageLoop() {
	tid, _, _ := procGetCurrentThreadId.Call()
	stateMu.Lock()
	state.threadID = uint32(tid)
	stateMu.Unlock()

	m := &msg{}
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(m)), 0, 0, 0)
		if ret == 0 || ret == uintptr(syscall.InvalidHandle) {
			return
		}

		switch m.Message {
		case wmHotkey:
			dispatch()
		case wmQuit:
			return
		}
	}
}

func unregister() {
	stateMu.Lock()
	if !state.running {
		stateMu.Unlock()
		return
	}
	state.running = false
	tid := state.threadID
	exit := state.loopExit
	stateMu.Unlock()

	if tid != 0 {
		procPostThreadMessage.Call(uintptr(tid), wmQuit, 0, 0)
	}

	if exit != nil {
		select {
		case <-exit:
		case <-time.After(3 * time.Second):
			logger.Warn("Hotkey message loop did not exit within timeout")
		}
	}
}
