package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"timelens/internal/config"
	"timelens/internal/logger"
)

// Globals are flags shared by every command.
type Globals struct {
	Config   string `help:"Config file (.json, .yaml or .yml)." type:"path" default:"${config_path}"`
	Debug    bool   `help:"Log at debug level and mirror logs to stderr."`
	Document string `help:"Document to track; captures are named after it and saved next to it." type:"path"`
	Output   string `help:"Output directory, overriding the configured one."`

	// Stdout is where commands print results.
	Stdout io.Writer `kong:"-"`
}

func (g *Globals) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Globals) initLogging() {
	if err := logger.Init(logger.Config{Debug: g.Debug, ConfigDir: config.Dir()}); err != nil {
		level := log.InfoLevel
		if g.Debug {
			level = log.DebugLevel
		}
		logger.SetOutput(os.Stderr, level)
		logger.Warn("Failed to open log file, logging to stderr", "error", err)
	}
}

// load reads the config file and applies the command line overrides.
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	g.apply(cfg)
	return cfg, nil
}

// apply writes the command line overrides into cfg.
func (g *Globals) apply(cfg *config.Config) {
	if g.Document != "" {
		cfg.DocumentPath = g.Document
	}
	if g.Output != "" {
		cfg.OutputDirectory = g.Output
	}
}

// openStore loads the config file into a Store the tray can save back.
// Overrides are left out so they never reach the file. A file that fails
// to load yields a Store over defaults that is never saved, so the broken
// file stays as the user left it.
func (g *Globals) openStore() *config.Store {
	cfg, err := config.Load(g.Config)
	if err != nil {
		logger.Error("Failed to load config, using defaults; changes will not be saved", "path", g.Config, "error", err)
		def := config.Default()
		return config.NewStore("", &def)
	}
	return config.NewStore(g.Config, cfg)
}

// CLI is the root command.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Print the version and exit."`

	Tray TrayCmd   `cmd:"" help:"Run the tray app." default:"1"`
	Run  RunCmd    `cmd:"" help:"Capture periodically without a tray until interrupted."`
	Shot ShotCmd   `cmd:"" help:"Take one capture now."`
	List ListCmd   `cmd:"" help:"List captures in the output directory."`
	Cfg  ConfigCmd `cmd:"" name:"config" help:"Show or change settings."`
}
