// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package matrixterm implements a monochrome display.Drawer that draws LED
// matrices on the terminal (stdout) using ANSI color codes.
//
// Useful to preview what a chain of 8x8 units would show, for example with
// the emulated slave of i2cmatrixtest.
package matrixterm

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts represents the options available for this display.
type Opts struct {
	W, H int
	// On is the color of a lit LED at full brightness. Defaults to red.
	On      color.NRGBA
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a LED matrix emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	on      color.NRGBA
	// level is the brightness, 0 to 15.
	level byte

	leds *image1bit.VerticalLSB
	buf  bytes.Buffer
	// drawn is set once a picture is on screen, so the next one overwrites
	// it in place.
	drawn bool
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a Dev that writes the ANSI stream to w.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	on := opts.On
	if on == (color.NRGBA{}) {
		on = color.NRGBA{R: 255, A: 255}
	}
	return &Dev{
		w:       w,
		palette: *p,
		on:      on,
		level:   15,
		leds:    image1bit.NewVerticalLSB(image.Rect(0, 0, opts.W, opts.H)),
	}
}

func (d *Dev) String() string {
	return "MatrixTerm"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the prompt is not colored.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// SetBrightness scales the lit LED color; only the low 4 bits of level are
// used, like the slave does.
func (d *Dev) SetBrightness(level byte) {
	d.level = level & 0x0f
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.leds.Bounds()
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.leds, r, src, sp, draw.Src)
	return d.refresh()
}

// lit returns the color of a lit LED at the current brightness.
func (d *Dev) lit() color.NRGBA {
	scale := func(v uint8) uint8 {
		return uint8(uint16(v) * uint16(d.level+1) / 16)
	}
	return color.NRGBA{R: scale(d.on.R), G: scale(d.on.G), B: scale(d.on.B), A: 255}
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	b := d.leds.Bounds()
	if d.drawn {
		fmt.Fprintf(&d.buf, "\033[%dA", b.Dy())
	}
	on := d.palette.Block(d.lit())
	off := d.palette.Block(color.NRGBA{R: 24, G: 24, B: 24, A: 255})
	for y := b.Min.Y; y < b.Max.Y; y++ {
		_, _ = d.buf.WriteString("\r\033[0m")
		for x := b.Min.X; x < b.Max.X; x++ {
			if d.leds.BitAt(x, y) {
				_, _ = io.WriteString(&d.buf, on)
			} else {
				_, _ = io.WriteString(&d.buf, off)
			}
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
