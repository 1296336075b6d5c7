// Package assets holds the tray icon.
package assets

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 32

// IconPNG is the 32x32 tray icon, a lens ring with a shutter dot.
var IconPNG = renderIcon()

// IconICO wraps IconPNG in an ICO container for the Windows tray.
var IconICO = wrapICO(IconPNG, iconSize)

func renderIcon() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	ring := color.NRGBA{R: 0x21, G: 0x96, B: 0xf3, A: 0xff}
	dot := color.NRGBA{R: 0xf4, G: 0x43, B: 0x36, A: 0xff}

	c := float64(iconSize-1) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			d := dx*dx + dy*dy
			switch {
			case d <= 16:
				img.Set(x, y, dot)
			case d >= 121 && d <= 240:
				img.Set(x, y, ring)
			}
		}
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		panic(err)
	}
	return pngBuf.Bytes()
}

// wrapICO builds a single-image ICONDIR around PNG data.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	binary.Write(&buf, le, uint16(0)) // reserved
	binary.Write(&buf, le, uint16(1)) // type: icon
	binary.Write(&buf, le, uint16(1)) // image count

	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size))
	buf.WriteByte(0)                   // palette
	buf.WriteByte(0)                   // reserved
	binary.Write(&buf, le, uint16(1))  // planes
	binary.Write(&buf, le, uint16(32)) // bits per pixel
	binary.Write(&buf, le, uint32(len(pngData)))
	binary.Write(&buf, le, uint32(6+16))

	buf.Write(pngData)
	return buf.Bytes()
}
