//go:build !windows

package hotkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChangeHotkey(t *testing.T) {
	fired := make(chan string, 1)
	err := ChangeHotkey("Ctrl+Shift+K", func() { fired <- "new" })
	assert.ErrorIs(t, err, ErrUnsupported)

	dispatch()
	select {
	case got := <-fired:
		assert.Equal(t, "new", got)
	case <-time.After(time.Second):
		t.Fatal("handler not swapped")
	}

	err = ChangeHotkey("Ctrl+Tab", func() { fired <- "bad" })
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupported)

	dispatch()
	assert.Equal(t, "new", <-fired)
}
