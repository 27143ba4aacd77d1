// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package matrixfont renders text for 8 pixel high LED matrices and scrolls
// it across a chain of units.
//
// Text is produced as a strip of columns, bit 0 of each column being the top
// LED, which is the column-major layout of i2cmatrix.Frame.
package matrixfont

import (
	"image"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/ledchain/devices/i2cmatrix"
)

const (
	// Width is the number of columns of a glyph.
	Width = 5
	// Spacing is the number of blank columns between glyphs.
	Spacing = 1
)

// Glyph returns the columns of r. Runes outside printable ASCII render as
// '?'.
func Glyph(r rune) [Width]byte {
	if r < ' ' || r > '~' {
		r = '?'
	}
	return ascii[r-' ']
}

// Render returns the column strip of text.
func Render(text string) []byte {
	var cols []byte
	for i, r := range []rune(text) {
		if i != 0 {
			cols = append(cols, make([]byte, Spacing)...)
		}
		g := Glyph(r)
		cols = append(cols, g[:]...)
	}
	return cols
}

// Columns converts the top 8 rows of img into a column strip.
func Columns(img image.Image) []byte {
	b := img.Bounds()
	cols := make([]byte, b.Dx())
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y && y < b.Min.Y+i2cmatrix.Slots; y++ {
			if image1bit.BitModel.Convert(img.At(x, y)).(image1bit.Bit) == image1bit.On {
				cols[x-b.Min.X] |= 1 << (y - b.Min.Y)
			}
		}
	}
	return cols
}

// FrameWriter is the part of i2cmatrix.Dev a Marquee needs.
type FrameWriter interface {
	WriteDisplay(unit byte, content i2cmatrix.Frame) error
	Mode(unit byte) i2cmatrix.Mode
}

// Marquee scrolls a column strip right to left across units.
type Marquee struct {
	w     FrameWriter
	units int
	// strip is the text preceded by one screen of blank columns so it enters
	// from the right.
	strip []byte
	pos   int
}

// NewMarquee returns a Marquee scrolling cols over the first units units of
// w.
func NewMarquee(w FrameWriter, units int, cols []byte) *Marquee {
	strip := make([]byte, units*i2cmatrix.Slots, units*i2cmatrix.Slots+len(cols))
	return &Marquee{w: w, units: units, strip: append(strip, cols...)}
}

// Len returns the number of steps before the strip repeats.
func (m *Marquee) Len() int {
	return len(m.strip)
}

// Frames returns the frames showing the current window, in column-major
// layout.
func (m *Marquee) Frames() []i2cmatrix.Frame {
	frames := make([]i2cmatrix.Frame, m.units)
	for unit := range frames {
		for x := range i2cmatrix.Slots {
			ix := (m.pos + unit*i2cmatrix.Slots + x) % len(m.strip)
			frames[unit][x] = m.strip[ix]
		}
	}
	return frames
}

// Step writes the current window and advances it by one column.
func (m *Marquee) Step() error {
	for unit, f := range m.Frames() {
		u := byte(unit)
		if m.w.Mode(u) == i2cmatrix.RowMajor {
			f = f.Transpose()
		}
		if err := m.w.WriteDisplay(u, f); err != nil {
			return err
		}
	}
	m.pos = (m.pos + 1) % len(m.strip)
	return nil
}

// Scroll runs the strip count times through the display, waiting interval
// between steps.
func (m *Marquee) Scroll(count int, interval time.Duration) error {
	for steps := count * len(m.strip); steps > 0; steps-- {
		if err := m.Step(); err != nil {
			return err
		}
		time.Sleep(interval)
	}
	return nil
}
