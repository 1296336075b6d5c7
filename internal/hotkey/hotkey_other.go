//go:build !windows

package hotkey

func register(Combo) error {
	return ErrUnsupported
}

func unregister() {}
