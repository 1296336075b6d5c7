package config

import "time"

const (
	TriggerTimer = "timer"
	TriggerModal = "modal"

	NameStyleCompact = "compact"
	NameStyleVerbose = "verbose"

	MinIntervalMinutes = 1
	MaxIntervalMinutes = 10
)

type Config struct {
	OutputDirectory   string `json:"output_directory" yaml:"output_directory"`
	IntervalMinutes   int    `json:"interval_minutes" yaml:"interval_minutes"`
	IncludeDimensions bool   `json:"include_dimensions" yaml:"include_dimensions"`
	DocumentPath      string `json:"document_path" yaml:"document_path"`
	Trigger           string `json:"trigger" yaml:"trigger"`
	NameStyle         string `json:"name_style" yaml:"name_style"`
	ForcePNGSettings  bool   `json:"force_png_settings" yaml:"force_png_settings"`
	Hotkey            string `json:"hotkey" yaml:"hotkey"`
	Notifications     bool   `json:"notifications" yaml:"notifications"`
	EnablePreview     bool   `json:"enable_preview" yaml:"enable_preview"`
	PreviewAddr       string `json:"preview_addr" yaml:"preview_addr"`
	StartOnLaunch     bool   `json:"start_on_launch" yaml:"start_on_launch"`
}

func Default() Config {
	return Config{
		IntervalMinutes:  MaxIntervalMinutes,
		Trigger:          TriggerTimer,
		NameStyle:        NameStyleCompact,
		ForcePNGSettings: true,
		Hotkey:           "Ctrl+Shift+T",
		Notifications:    true,
		PreviewAddr:      "localhost:8765",
	}
}

// Interval is the time between two scheduled captures.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds()) * time.Second
}

func (c Config) IntervalSeconds() int {
	return clampInterval(c.IntervalMinutes) * 60
}

func clampInterval(minutes int) int {
	if minutes < MinIntervalMinutes {
		return MinIntervalMinutes
	}
	if minutes > MaxIntervalMinutes {
		return MaxIntervalMinutes
	}
	return minutes
}
