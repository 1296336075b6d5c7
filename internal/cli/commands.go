package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"timelens/internal/app"
	"timelens/internal/capture"
	"timelens/internal/config"
	"timelens/internal/instance"
	"timelens/internal/notify"
	"timelens/internal/tray"
)

type TrayCmd struct{}

func (c *TrayCmd) Run(g *Globals) error {
	g.initLogging()

	lock, err := instance.Acquire("timelens")
	if err != nil {
		return err
	}
	defer lock.Release()

	store := g.openStore()
	desktop := notify.NewDesktop(store.Get().Notifications)
	a := app.New(store, app.Options{Reporter: desktop, Overrides: g.apply})
	tray.New(a, desktop).Run()
	return nil
}

type RunCmd struct {
	Modal bool `help:"Use a fixed ticker instead of the re-arming timer."`
}

func (c *RunCmd) Run(g *Globals) error {
	g.initLogging()

	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Modal {
		cfg.Trigger = config.TriggerModal
	}

	// Overrides apply to this run only, so the store is not persisted.
	a := app.New(config.NewStore("", cfg), app.Options{Reporter: consoleReporter{g}})
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return a.Scheduler.Stop()
}

type ShotCmd struct{}

func (c *ShotCmd) Run(g *Globals) error {
	g.initLogging()

	cfg, err := g.load()
	if err != nil {
		return err
	}

	a := app.New(config.NewStore("", cfg), app.Options{})
	res, err := a.Action.Capture(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintln(g.out(), res.Path)
	return nil
}

type ListCmd struct {
	All bool `help:"List every PNG in the directory, not only captures of the document."`
}

func (c *ListCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	host := capture.NewDesktop(func() string { return cfg.DocumentPath })
	action := capture.NewAction(host, func() capture.Settings { return capture.SettingsFrom(*cfg) })
	dir, err := action.ResolveDir()
	if err != nil {
		return err
	}

	base := capture.BaseName(host.DocumentPath())
	if c.All {
		base = ""
	}
	entries, err := capture.List(dir, base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(g.out(), "No captures in %s\n", dir)
			return nil
		}
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(g.out())
	t.SetStyle(table.StyleLight)
	t.SetTitle(dir)
	t.AppendHeader(table.Row{"#", "File", "Size", "Taken"})
	for i, e := range entries {
		t.AppendRow(table.Row{i + 1, filepath.Base(e.Path), humanize.IBytes(uint64(e.Size)), e.ModTime.Format("2006-01-02 15:04:05")})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d captures", len(entries)), "", ""})
	t.Render()
	return nil
}

type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" help:"Print the effective settings." default:"1"`
	Set  ConfigSetCmd  `cmd:"" help:"Change one setting."`
	Path ConfigPathCmd `cmd:"" help:"Print the config file path."`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(g.out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Key", "Value"})
	for _, k := range keys {
		t.AppendRow(table.Row{k, fields[k]})
	}
	t.Render()
	return nil
}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"Setting name, e.g. interval_minutes."`
	Value string `arg:"" help:"New value."`
}

func (c *ConfigSetCmd) Run(g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	if err := cfg.Set(c.Key, c.Value); err != nil {
		return err
	}
	if err := config.Save(g.Config, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(g.out(), "%s = %s\n", c.Key, c.Value)
	return nil
}

type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run(g *Globals) error {
	fmt.Fprintln(g.out(), g.Config)
	return nil
}

// consoleReporter prints reports for headless runs and logs them.
type consoleReporter struct {
	g *Globals
}

func (r consoleReporter) Report(level notify.Level, msg string) {
	notify.Log{}.Report(level, msg)
	fmt.Fprintf(r.g.out(), "[%s] %s\n", level, msg)
}
