// Package app wires configuration, the desktop capture host, the
// scheduler and the preview server into one unit shared by the tray and
// the command line.
package app

import (
	"context"
	"time"

	"timelens/internal/capture"
	"timelens/internal/config"
	"timelens/internal/logger"
	"timelens/internal/notify"
	"timelens/internal/preview"
	"timelens/internal/scheduler"
	"timelens/internal/timer"
)

type App struct {
	Store     *config.Store
	overrides func(*config.Config)
	Action    *capture.Action
	Scheduler *scheduler.Scheduler
	Preview   *preview.Server
	Reporter  notify.Reporter
}

type Options struct {
	Host     capture.Host
	Timers   timer.Registrar
	Reporter notify.Reporter
	// Overrides adjusts the stored config for this process only. It sees
	// a copy, so nothing it changes reaches the config file.
	Overrides func(*config.Config)
}

// New builds an App around store. Zero Options fields fall back to the
// desktop host, a real timer loop and log-only reports.
func New(store *config.Store, opts Options) *App {
	a := &App{Store: store, overrides: opts.Overrides}
	if opts.Host == nil {
		opts.Host = capture.NewDesktop(func() string { return a.Config().DocumentPath })
	}
	if opts.Timers == nil {
		opts.Timers = timer.NewLoop()
	}
	if opts.Reporter == nil {
		opts.Reporter = notify.Log{}
	}
	a.Reporter = opts.Reporter

	a.Preview = preview.New(a.Config().PreviewAddr)
	a.Action = capture.NewAction(opts.Host, func() capture.Settings {
		return capture.SettingsFrom(a.Config())
	})
	a.Scheduler = scheduler.New(scheduler.Options{
		Capturer:  a.Action,
		Timers:    opts.Timers,
		Reporter:  opts.Reporter,
		Interval:  func() time.Duration { return a.Config().Interval() },
		Trigger:   func() string { return a.Config().Trigger },
		OnCapture: a.published,
	})
	return a
}

// Config is the stored config with the process overrides applied.
func (a *App) Config() config.Config {
	cfg := a.Store.Get()
	if a.overrides != nil {
		a.overrides(&cfg)
	}
	return cfg
}

func (a *App) published(res *capture.Result) {
	if a.Preview.Running() {
		a.Preview.Publish(res.Path)
	}
}

// Toggle starts a stopped session and stops a running one.
func (a *App) Toggle(ctx context.Context) error {
	if a.Scheduler.State() == scheduler.Running {
		return a.Scheduler.Stop()
	}
	return a.Scheduler.Start(ctx)
}

// SetPreview starts or stops the preview server.
func (a *App) SetPreview(enabled bool) error {
	if !enabled {
		a.Preview.Shutdown()
		return nil
	}
	return a.Preview.Start()
}

// Close stops everything; safe to call more than once.
func (a *App) Close() {
	a.Scheduler.Unload()
	a.Preview.Shutdown()
	logger.Debug("App closed")
}
