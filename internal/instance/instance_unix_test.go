//go:build !windows

package instance

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timelens.lock")

	first, err := acquireAt(path)
	require.NoError(t, err)

	_, err = acquireAt(path)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, first.Release())

	again, err := acquireAt(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestAcquire_UsesRuntimeDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	lock, err := Acquire("timelens-test")
	require.NoError(t, err)
	defer lock.Release()

	assert.FileExists(t, filepath.Join(dir, "timelens-test.lock"))
}
