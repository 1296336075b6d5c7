// Package tray is the settings panel: a system tray menu exposing the
// capture settings and the Start and Stop actions.
package tray

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/getlantern/systray"
	"github.com/ncruces/zenity"

	"timelens/internal/app"
	"timelens/internal/assets"
	"timelens/internal/config"
	"timelens/internal/hotkey"
	"timelens/internal/logger"
	"timelens/internal/notify"
	"timelens/internal/scheduler"
	"timelens/internal/startup"
)

var intervalChoices = []int{1, 2, 5, 10}

type Tray struct {
	app     *app.App
	desktop *notify.Desktop

	mStatus *systray.MenuItem
	mStart  *systray.MenuItem
	mStop   *systray.MenuItem
}

func New(a *app.App, desktop *notify.Desktop) *Tray {
	return &Tray{app: a, desktop: desktop}
}

// Run blocks until the user quits from the menu.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	cfg := t.app.Config()

	if runtime.GOOS == "windows" {
		systray.SetIcon(assets.IconICO)
	} else {
		systray.SetIcon(assets.IconPNG)
	}
	systray.SetTitle("timelens")

	t.mStatus = systray.AddMenuItem("", "Capture status")
	t.mStatus.Disable()
	t.mStart = systray.AddMenuItem("Start timelens", "Capture now and then every interval")
	t.mStop = systray.AddMenuItem("Stop timelens", "Stop periodic captures")
	systray.AddSeparator()

	mInterval := systray.AddMenuItem("Interval", "Time between screenshots")
	intervalItems := make(map[int]*systray.MenuItem, len(intervalChoices))
	intervalCh := make(chan int)
	for _, m := range intervalChoices {
		item := mInterval.AddSubMenuItemCheckbox(fmt.Sprintf("%d min", m), "", cfg.IntervalMinutes == m)
		intervalItems[m] = item
		go func(m int, item *systray.MenuItem) {
			for range item.ClickedCh {
				intervalCh <- m
			}
		}(m, item)
	}
	mDims := systray.AddMenuItemCheckbox("Include Dimensions", "Append window dimensions to file names", cfg.IncludeDimensions)
	mOutput := systray.AddMenuItem("Output Directory...", "Directory to save screenshots. Defaults to the document's directory")
	mDocument := systray.AddMenuItem("Track Document...", "Document whose name and directory captures use")
	systray.AddSeparator()

	mEnablePreview := systray.AddMenuItemCheckbox("Enable Preview", "Serve captures on a local web page", cfg.EnablePreview)
	mViewPreview := systray.AddMenuItem("View Captures", "Open the preview in a browser")
	mNotify := systray.AddMenuItemCheckbox("Notifications", "Show desktop notifications", cfg.Notifications)
	mStartup := systray.AddMenuItemCheckbox("Start on Boot", "Launch timelens at login", startup.IsEnabled())
	mReload := systray.AddMenuItem("Reload Settings", "Re-read the config file")
	systray.AddSeparator()

	mQuit := systray.AddMenuItem("Quit", "Quit timelens")

	t.desktop.OnReport(func(notify.Level, string) { t.refresh() })
	t.refresh()

	if err := hotkey.Register(cfg.Hotkey, t.toggle); err != nil {
		if errors.Is(err, hotkey.ErrUnsupported) {
			logger.Debug("Hotkey not registered", "error", err)
		} else {
			logger.Warn("Failed to register hotkey", "hotkey", cfg.Hotkey, "error", err)
		}
	}

	if cfg.EnablePreview {
		if err := t.app.SetPreview(true); err != nil {
			logger.Error("Failed to start preview", "error", err)
			mEnablePreview.Uncheck()
		}
	}
	if !t.app.Preview.Running() {
		mViewPreview.Disable()
	}

	if cfg.StartOnLaunch {
		go t.app.Scheduler.Start(context.Background())
	}

	go func() {
		for {
			select {
			case <-t.mStart.ClickedCh:
				t.app.Scheduler.Start(context.Background())
			case <-t.mStop.ClickedCh:
				t.app.Scheduler.Stop()
			case m := <-intervalCh:
				t.update(func(c *config.Config) { c.IntervalMinutes = m })
				for v, item := range intervalItems {
					if v == m {
						item.Check()
					} else {
						item.Uncheck()
					}
				}
				t.refresh()
			case <-mDims.ClickedCh:
				on := !mDims.Checked()
				t.update(func(c *config.Config) { c.IncludeDimensions = on })
				setChecked(mDims, on)
			case <-mOutput.ClickedCh:
				if dir, ok := t.pick("Output Directory", t.app.Config().OutputDirectory, true); ok {
					t.update(func(c *config.Config) { c.OutputDirectory = dir })
				}
				t.refresh()
			case <-mDocument.ClickedCh:
				if doc, ok := t.pick("Track Document", t.app.Config().DocumentPath, false); ok {
					t.update(func(c *config.Config) { c.DocumentPath = doc })
				}
				t.refresh()
			case <-mEnablePreview.ClickedCh:
				on := !mEnablePreview.Checked()
				if err := t.app.SetPreview(on); err != nil {
					logger.Error("Failed to start preview", "error", err)
					break
				}
				t.update(func(c *config.Config) { c.EnablePreview = on })
				setChecked(mEnablePreview, on)
				if on {
					mViewPreview.Enable()
				} else {
					mViewPreview.Disable()
				}
			case <-mViewPreview.ClickedCh:
				t.app.Preview.OpenBrowser()
			case <-mNotify.ClickedCh:
				on := !mNotify.Checked()
				t.update(func(c *config.Config) { c.Notifications = on })
				t.desktop.SetEnabled(on)
				setChecked(mNotify, on)
			case <-mStartup.ClickedCh:
				if mStartup.Checked() {
					if err := startup.Disable(); err != nil {
						logger.Error("Failed to disable startup", "error", err)
					} else {
						mStartup.Uncheck()
					}
				} else {
					if err := startup.Enable(); err != nil {
						logger.Error("Failed to enable startup", "error", err)
					} else {
						mStartup.Check()
					}
				}
			case <-mReload.ClickedCh:
				cfg := t.reload()
				for v, item := range intervalItems {
					setChecked(item, v == cfg.IntervalMinutes)
				}
				setChecked(mDims, cfg.IncludeDimensions)
				setChecked(mNotify, cfg.Notifications)
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	hotkey.Unregister()
	t.app.Close()
}

func (t *Tray) toggle() {
	t.app.Toggle(context.Background())
}

// reload re-reads the config file so edits made with "timelens config set"
// apply without a restart. The hotkey is re-registered when it changed.
func (t *Tray) reload() config.Config {
	before := t.app.Config()
	if err := t.app.Store.Reload(); err != nil {
		logger.Error("Failed to reload config", "error", err)
		return before
	}
	after := t.app.Config()

	if after.Hotkey != before.Hotkey {
		if err := hotkey.ChangeHotkey(after.Hotkey, t.toggle); err != nil && !errors.Is(err, hotkey.ErrUnsupported) {
			logger.Warn("Failed to change hotkey", "hotkey", after.Hotkey, "error", err)
		}
	}
	t.desktop.SetEnabled(after.Notifications)
	t.refresh()
	return after
}

func (t *Tray) update(fn func(*config.Config)) {
	if err := t.app.Store.Update(fn); err != nil {
		logger.Error("Failed to save config", "error", err)
	}
}

// refresh mirrors scheduler state into the menu: Start is enabled only
// when idle, Stop only when running.
func (t *Tray) refresh() {
	running := t.app.Scheduler.State() == scheduler.Running
	status := t.status()
	t.mStatus.SetTitle(status)
	systray.SetTooltip("timelens - " + status)

	if running {
		t.mStart.Disable()
		t.mStop.Enable()
	} else {
		t.mStart.Enable()
		t.mStop.Disable()
	}
}

func (t *Tray) status() string {
	running := t.app.Scheduler.State() == scheduler.Running
	return statusLine(running, t.app.Config(), t.app.Action.Ready() == nil)
}

func statusLine(running bool, cfg config.Config, ready bool) string {
	switch {
	case running:
		return fmt.Sprintf("Capturing every %d min", cfg.IntervalSeconds()/60)
	case !ready:
		return "Idle - save the document or set an output directory"
	default:
		return "Idle"
	}
}

func (t *Tray) pick(title, current string, directory bool) (string, bool) {
	opts := []zenity.Option{zenity.Title(title)}
	if current != "" {
		opts = append(opts, zenity.Filename(current))
	}
	if directory {
		opts = append(opts, zenity.Directory())
	}

	path, err := zenity.SelectFile(opts...)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			logger.Error("File dialog failed", "error", err)
		}
		return "", false
	}
	return path, path != ""
}

func setChecked(item *systray.MenuItem, on bool) {
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}
