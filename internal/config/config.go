package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.Normalize()
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Normalize clamps the interval and replaces unknown enum values with defaults.
func (c *Config) Normalize() {
	c.IntervalMinutes = clampInterval(c.IntervalMinutes)
	if c.Trigger != TriggerModal {
		c.Trigger = TriggerTimer
	}
	if c.NameStyle != NameStyleVerbose {
		c.NameStyle = NameStyleCompact
	}
	if c.PreviewAddr == "" {
		c.PreviewAddr = Default().PreviewAddr
	}
}

// Set assigns a field by its file key, e.g. Set("interval_minutes", "5").
func (c *Config) Set(key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		return b, nil
	}

	switch key {
	case "output_directory":
		c.OutputDirectory = value
	case "document_path":
		c.DocumentPath = value
	case "interval_minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected a number of minutes, got %q", key, value)
		}
		if n < MinIntervalMinutes || n > MaxIntervalMinutes {
			return fmt.Errorf("%s must be between %d and %d", key, MinIntervalMinutes, MaxIntervalMinutes)
		}
		c.IntervalMinutes = n
	case "trigger":
		if value != TriggerTimer && value != TriggerModal {
			return fmt.Errorf("%s must be %q or %q", key, TriggerTimer, TriggerModal)
		}
		c.Trigger = value
	case "name_style":
		if value != NameStyleCompact && value != NameStyleVerbose {
			return fmt.Errorf("%s must be %q or %q", key, NameStyleCompact, NameStyleVerbose)
		}
		c.NameStyle = value
	case "hotkey":
		c.Hotkey = value
	case "preview_addr":
		c.PreviewAddr = value
	case "include_dimensions", "force_png_settings", "notifications", "enable_preview", "start_on_launch":
		b, err := parseBool()
		if err != nil {
			return err
		}
		switch key {
		case "include_dimensions":
			c.IncludeDimensions = b
		case "force_png_settings":
			c.ForcePNGSettings = b
		case "notifications":
			c.Notifications = b
		case "enable_preview":
			c.EnablePreview = b
		case "start_on_launch":
			c.StartOnLaunch = b
		}
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "timelens")
}

func DefaultPath() string {
	return filepath.Join(Dir(), "config.json")
}

// Store guards a Config shared between the tray loop and the scheduler.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

func NewStore(path string, cfg *Config) *Store {
	return &Store{path: path, cfg: *cfg}
}

func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Store) Path() string {
	return s.path
}

// Update applies fn to the current config and persists the result.
// The in-memory value is updated even if saving fails.
func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.cfg)
	s.cfg.Normalize()
	if s.path == "" {
		return nil
	}
	return Save(s.path, &s.cfg)
}

// Reload replaces the in-memory config with the file's current contents,
// picking up edits made by other processes. A Store without a path keeps
// its config.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	cfg, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = *cfg
	s.mu.Unlock()
	return nil
}
