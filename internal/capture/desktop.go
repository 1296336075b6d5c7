package capture

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"
)

// Desktop captures the physical displays. Each active display is one
// Window; the tracked document is whatever path the user configured.
type Desktop struct {
	document func() string
}

func NewDesktop(document func() string) *Desktop {
	return &Desktop{document: document}
}

func (d *Desktop) DocumentPath() string {
	if d.document == nil {
		return ""
	}
	p := d.document()
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func (d *Desktop) Windows() []Window {
	n := screenshot.NumActiveDisplays()
	wins := make([]Window, 0, n)
	for i := 0; i < n; i++ {
		wins = append(wins, Window{Index: i, Bounds: screenshot.GetDisplayBounds(i)})
	}

	if x, y, ok := cursorPosition(); ok {
		wins = cursorFirst(wins, image.Pt(x, y))
	}
	return wins
}

func (d *Desktop) Screenshot(ctx context.Context, path string, win *Window, out Output) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return fmt.Errorf("no active displays found")
	}

	var bounds image.Rectangle
	if win != nil {
		bounds = win.Bounds
	} else {
		for i := 0; i < n; i++ {
			bounds = bounds.Union(screenshot.GetDisplayBounds(i))
		}
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return fmt.Errorf("screenshot capture failed: %w", err)
	}

	return WritePNG(path, img, out)
}

// cursorFirst moves the window containing pt to the front.
func cursorFirst(wins []Window, pt image.Point) []Window {
	for i, w := range wins {
		if pt.In(w.Bounds) {
			if i == 0 {
				return wins
			}
			ordered := make([]Window, 0, len(wins))
			ordered = append(ordered, w)
			ordered = append(ordered, wins[:i]...)
			return append(ordered, wins[i+1:]...)
		}
	}
	return wins
}

// WritePNG encodes img to path. With ForceRGB the alpha channel is
// flattened so the file is 8-bit RGB; with NoCompression zlib level 0 is used.
func WritePNG(path string, img image.Image, out Output) error {
	if out.ForceRGB {
		img = opaque(img)
	}

	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if out.NoCompression {
		enc.CompressionLevel = png.NoCompression
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := enc.Encode(file, img); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return file.Close()
}

func opaque(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.Black, image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}
