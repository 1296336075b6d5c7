package hotkey

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

type Handler func()

// Combo is a parsed hotkey such as "Ctrl+Shift+T".
type Combo struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Win   bool
	// Key is upper case: "A".."Z", "0".."9", "F1".."F12" or "PRINTSCREEN".
	Key string
}

func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if c.Alt {
		parts = append(parts, "Alt")
	}
	if c.Shift {
		parts = append(parts, "Shift")
	}
	if c.Win {
		parts = append(parts, "Win")
	}
	key := c.Key
	if key == "PRINTSCREEN" {
		key = "PrintScreen"
	}
	return strings.Join(append(parts, key), "+")
}

func Parse(s string) (Combo, error) {
	var c Combo
	tokens := strings.Split(s, "+")
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return Combo{}, fmt.Errorf("invalid hotkey %q", s)
		}
		last := i == len(tokens)-1

		switch strings.ToLower(tok) {
		case "ctrl", "control":
			c.Ctrl = true
		case "alt":
			c.Alt = true
		case "shift":
			c.Shift = true
		case "win", "super", "cmd":
			c.Win = true
		default:
			if !last {
				return Combo{}, fmt.Errorf("invalid hotkey %q: %q must be the last key", s, tok)
			}
			key, ok := normalizeKey(tok)
			if !ok {
				return Combo{}, fmt.Errorf("unsupported hotkey key %q", tok)
			}
			c.Key = key
		}
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("invalid hotkey %q: no key", s)
	}
	return c, nil
}

func normalizeKey(tok string) (string, bool) {
	up := strings.ToUpper(tok)
	if up == "PRINTSCREEN" || up == "PRTSC" {
		return "PRINTSCREEN", true
	}
	if len(up) == 1 && (up[0] >= 'A' && up[0] <= 'Z' || up[0] >= '0' && up[0] <= '9') {
		return up, true
	}
	if _, ok := functionKey(up); ok {
		return up, true
	}
	return "", false
}

// functionKey returns n for "Fn" with n in 1..12.
func functionKey(key string) (int, bool) {
	if len(key) < 2 || key[0] != 'F' {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(key[1:], "%d", &n); err != nil {
		return 0, false
	}
	if n < 1 || n > 12 || fmt.Sprintf("F%d", n) != key {
		return 0, false
	}
	return n, true
}

var (
	handlerMu      sync.Mutex
	currentHandler Handler
)

func Register(hotkey string, handler Handler) error {
	combo, err := Parse(hotkey)
	if err != nil {
		return err
	}
	handlerMu.Lock()
	currentHandler = handler
	handlerMu.Unlock()
	return register(combo)
}

func Unregister() {
	unregister()
}

// ChangeHotkey swaps the registered hotkey for newHotkey. An unparsable
// hotkey leaves the current binding in place.
func ChangeHotkey(newHotkey string, handler Handler) error {
	if _, err := Parse(newHotkey); err != nil {
		return err
	}
	Unregister()
	return Register(newHotkey, handler)
}

func dispatch() {
	handlerMu.Lock()
	h := currentHandler
	handlerMu.Unlock()
	if h != nil {
		go h()
	}
}
