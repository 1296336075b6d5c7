package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))

	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, 10*time.Minute, cfg.Interval())
	assert.True(t, cfg.ForcePNGSettings)
}

func TestLoad_JSONKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"output_directory": "~/shots", "interval_minutes": 3}`), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "~/shots", cfg.OutputDirectory)
	assert.Equal(t, 3, cfg.IntervalMinutes)
	assert.Equal(t, TriggerTimer, cfg.Trigger)
	assert.Equal(t, "Ctrl+Shift+T", cfg.Hotkey)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timelens.yaml")
	data := "interval_minutes: 2\ninclude_dimensions: true\ntrigger: modal\nname_style: verbose\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 120, cfg.IntervalSeconds())
	assert.True(t, cfg.IncludeDimensions)
	assert.Equal(t, TriggerModal, cfg.Trigger)
	assert.Equal(t, NameStyleVerbose, cfg.NameStyle)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalize_ClampsInterval(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-4, 1},
		{1, 1},
		{7, 7},
		{10, 10},
		{60, 10},
	}

	for _, tt := range tests {
		cfg := Config{IntervalMinutes: tt.in, Trigger: "bogus"}
		cfg.Normalize()
		assert.Equal(t, tt.want, cfg.IntervalMinutes, "input %d", tt.in)
		assert.Equal(t, TriggerTimer, cfg.Trigger)
	}
}

func TestSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("interval_minutes", "4"))
	require.NoError(t, cfg.Set("include_dimensions", "true"))
	require.NoError(t, cfg.Set("output_directory", "/tmp/out"))
	require.NoError(t, cfg.Set("trigger", "modal"))

	assert.Equal(t, 4, cfg.IntervalMinutes)
	assert.True(t, cfg.IncludeDimensions)
	assert.Equal(t, "/tmp/out", cfg.OutputDirectory)
	assert.Equal(t, TriggerModal, cfg.Trigger)

	assert.Error(t, cfg.Set("interval_minutes", "11"))
	assert.Error(t, cfg.Set("interval_minutes", "soon"))
	assert.Error(t, cfg.Set("include_dimensions", "maybe"))
	assert.Error(t, cfg.Set("name_style", "fancy"))
	assert.Error(t, cfg.Set("nope", "1"))
}

func TestStore_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	store := NewStore(path, &cfg)

	err := store.Update(func(c *Config) {
		c.IntervalMinutes = 5
		c.IncludeDimensions = true
	})
	require.NoError(t, err)
	assert.Equal(t, 5, store.Get().IntervalMinutes)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.IntervalMinutes)
	assert.True(t, reloaded.IncludeDimensions)
}

func TestStore_ReloadPicksUpFileEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	store := NewStore(path, &cfg)
	require.NoError(t, store.Update(func(c *Config) { c.IntervalMinutes = 5 }))

	edited, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, edited.Set("hotkey", "Ctrl+Alt+K"))
	require.NoError(t, Save(path, edited))

	require.NoError(t, store.Reload())
	assert.Equal(t, "Ctrl+Alt+K", store.Get().Hotkey)
	assert.Equal(t, 5, store.Get().IntervalMinutes)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	assert.Error(t, store.Reload())
	assert.Equal(t, "Ctrl+Alt+K", store.Get().Hotkey, "failed reload keeps the old config")

	memOnly := NewStore("", &cfg)
	assert.NoError(t, memOnly.Reload())
}
