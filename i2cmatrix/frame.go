// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cmatrix

import (
	"image"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Frame is the content of one unit, indexed top to bottom in row-major mode
// and left to right in column-major mode. Bit 0 of each byte is the leftmost
// (row-major) or topmost (column-major) LED.
type Frame [Slots]byte

// Transpose converts a row-major frame into the equivalent column-major one
// and vice versa.
func (f Frame) Transpose() Frame {
	var t Frame
	for y := range Slots {
		for x := range Slots {
			if f[y]&(1<<x) != 0 {
				t[x] |= 1 << y
			}
		}
	}
	return t
}

// FrameFromImage samples the 8x8 block of img whose top left corner is at
// origin and packs it for a unit in mode m. Pixels outside img are off.
func FrameFromImage(img image.Image, origin image.Point, m Mode) Frame {
	var f Frame
	b := img.Bounds()
	for y := range Slots {
		for x := range Slots {
			p := origin.Add(image.Pt(x, y))
			if !p.In(b) {
				continue
			}
			if image1bit.BitModel.Convert(img.At(p.X, p.Y)).(image1bit.Bit) == image1bit.Off {
				continue
			}
			if m == ColumnMajor {
				f[x] |= 1 << y
			} else {
				f[y] |= 1 << x
			}
		}
	}
	return f
}
