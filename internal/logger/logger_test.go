package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_CreatesLogDir(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { Logger = nil })

	require.NoError(t, Init(Config{ConfigDir: dir}))
	require.NotNil(t, Logger)

	info, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSetOutput_WritesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { Logger = nil })

	SetOutput(&buf, log.DebugLevel)
	Info("capture saved", "path", "/tmp/a.png")

	assert.Contains(t, buf.String(), "capture saved")
	assert.Contains(t, buf.String(), "/tmp/a.png")
}

func TestHelpers_NilLoggerIsSafe(t *testing.T) {
	Logger = nil
	assert.NotPanics(t, func() {
		Debug("x")
		Info("x")
		Warn("x")
		Error("x")
	})
}
