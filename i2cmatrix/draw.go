// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cmatrix

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// ColorModel implements display.Drawer.
func (dev *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Units are laid out left to right, unit 0
// first.
func (dev *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, Slots*int(dev.displays), Slots)
}

// Draw implements display.Drawer.
//
// The area outside r keeps what was previously drawn. Every unit touched by r
// is rewritten in full, packed for the unit's current mode.
func (dev *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.canvas == nil {
		dev.canvas = image1bit.NewVerticalLSB(dev.Bounds())
	}
	r = r.Intersect(dev.canvas.Bounds())
	if r.Empty() {
		return nil
	}
	draw.Draw(dev.canvas, r, src, sp, draw.Src)
	return dev.flush(r)
}

// DrawScaled fits src to the whole chain, scaling it with bilinear
// interpolation first when its size differs from Bounds.
func (dev *Dev) DrawScaled(src image.Image) error {
	b := dev.Bounds()
	if src.Bounds().Size() == b.Size() {
		return dev.Draw(b, src, src.Bounds().Min)
	}
	dst := image.NewGray(b)
	draw.ApproxBiLinear.Scale(dst, b, src, src.Bounds(), draw.Src, nil)
	return dev.Draw(b, dst, image.Point{})
}

// flush writes every unit overlapping r from the canvas.
func (dev *Dev) flush(r image.Rectangle) error {
	for unit := r.Min.X / Slots; unit*Slots < r.Max.X; unit++ {
		u := byte(unit)
		f := FrameFromImage(dev.canvas, image.Pt(unit*Slots, 0), dev.modeOf(u))
		if err := dev.writeDisplay(u, f); err != nil {
			return err
		}
	}
	return nil
}
