package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timelens/internal/config"
)

var (
	// ErrNoDocument means the tracked document was never saved and no
	// output directory is configured, so there is nowhere to write.
	ErrNoDocument = errors.New("document has not been saved and no output directory is configured")

	ErrCaptureFailed = errors.New("screenshot failed")
)

const fallbackBaseName = "capture"

// Window is one capturable surface of the host.
type Window struct {
	Index  int
	Bounds image.Rectangle
}

func (w Window) Width() int  { return w.Bounds.Dx() }
func (w Window) Height() int { return w.Bounds.Dy() }

// Output controls how the host encodes the PNG.
type Output struct {
	ForceRGB      bool
	NoCompression bool
}

// Host is what the capture action needs from the environment it runs in.
type Host interface {
	// DocumentPath returns the saved path of the current document, or ""
	// when it has never been saved.
	DocumentPath() string
	// Windows lists capture targets, the current one first.
	Windows() []Window
	// Screenshot writes a PNG of win to path. A nil win captures
	// whatever the host considers the whole screen.
	Screenshot(ctx context.Context, path string, win *Window, out Output) error
}

type Settings struct {
	OutputDirectory   string
	IncludeDimensions bool
	NameStyle         string
	ForcePNGSettings  bool
}

func SettingsFrom(cfg config.Config) Settings {
	return Settings{
		OutputDirectory:   cfg.OutputDirectory,
		IncludeDimensions: cfg.IncludeDimensions,
		NameStyle:         cfg.NameStyle,
		ForcePNGSettings:  cfg.ForcePNGSettings,
	}
}

type Result struct {
	Path   string
	Window *Window
	Time   time.Time
}

type CaptureError struct {
	Path string
	Err  error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("screenshot to %s failed: %v", e.Path, e.Err)
}

func (e *CaptureError) Unwrap() []error { return []error{ErrCaptureFailed, e.Err} }

type Action struct {
	host     Host
	settings func() Settings
	now      func() time.Time
}

// NewAction builds an Action that reads its settings on every call, so
// changes made while a session is running apply to the next capture.
func NewAction(host Host, settings func() Settings) *Action {
	return &Action{host: host, settings: settings, now: time.Now}
}

// ResolveDir returns the directory captures are written to, without creating it.
func (a *Action) ResolveDir() (string, error) {
	s := a.settings()
	doc := a.host.DocumentPath()

	if s.OutputDirectory != "" {
		return ExpandPath(s.OutputDirectory, doc)
	}
	if doc == "" {
		return "", ErrNoDocument
	}
	return filepath.Dir(doc), nil
}

func (a *Action) Ready() error {
	_, err := a.ResolveDir()
	return err
}

// TargetPath resolves and creates the output directory and returns the
// path the capture taken at t will be written to.
func (a *Action) TargetPath(t time.Time) (string, *Window, error) {
	dir, err := a.ResolveDir()
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	s := a.settings()
	var current *Window
	if wins := a.host.Windows(); len(wins) > 0 {
		current = &wins[0]
	}

	var dims string
	if s.IncludeDimensions && current != nil {
		dims = fmt.Sprintf("%dx%d", current.Width(), current.Height())
	}

	name := FileName(BaseName(a.host.DocumentPath()), t, dims, s.NameStyle)
	return filepath.Join(dir, name), current, nil
}

// Capture takes one screenshot. Each host window is tried in turn and the
// first one that succeeds wins; if all fail the host is asked for an
// unqualified capture.
func (a *Action) Capture(ctx context.Context) (*Result, error) {
	t := a.now()
	path, _, err := a.TargetPath(t)
	if err != nil {
		return nil, err
	}

	out := Output{}
	if a.settings().ForcePNGSettings {
		out = Output{ForceRGB: true, NoCompression: true}
	}

	for _, win := range a.host.Windows() {
		win := win
		if err := a.host.Screenshot(ctx, path, &win, out); err == nil {
			return &Result{Path: path, Window: &win, Time: t}, nil
		}
	}

	if err := a.host.Screenshot(ctx, path, nil, out); err != nil {
		return nil, &CaptureError{Path: path, Err: err}
	}
	return &Result{Path: path, Time: t}, nil
}

// BaseName is the document's file name without its extension.
func BaseName(doc string) string {
	if doc == "" {
		return fallbackBaseName
	}
	base := filepath.Base(doc)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		return fallbackBaseName
	}
	return base
}

// FileName composes the capture file name. dims is "WxH" or empty.
//
//	compact: project_2024-05-01-13-04-05_1920x1080.png
//	verbose: project 2024-05-01 at 13.04.05 (1920x1080).png
func FileName(base string, t time.Time, dims, style string) string {
	var name string
	if style == config.NameStyleVerbose {
		name = base + " " + t.Format("2006-01-02") + " at " + t.Format("15.04.05")
		if dims != "" {
			name += " (" + dims + ")"
		}
	} else {
		name = base + "_" + t.Format("2006-01-02-15-04-05")
		if dims != "" {
			name += "_" + dims
		}
	}
	return name + ".png"
}
