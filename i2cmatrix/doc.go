// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cmatrix drives an I²C slave microcontroller that fans out to one
// to eight daisy-chained 8x8 LED matrix units, each built around a
// MAX7219-class chip.
//
// The slave exposes a small auto-incrementing register file. A transaction
// starts with a command byte naming the first register, followed by the
// values stored into that register and the ones after it. This is why a full
// frame is written as UNIT, index, then eight bytes landing in BYTE1..BYTE8.
//
// Each unit is either in row-major or column-major mode. In row-major mode a
// slot byte lights one row, bit 0 being the leftmost LED. In column-major mode
// it lights one column, bit 0 being the top LED. Slots are numbered from the
// bottom row (or rightmost column) up, which is the MAX7219 digit register
// order.
//
// Dev also implements display.Drawer so the chain can be used as a
// 8*N x 8 monochrome canvas.
package i2cmatrix
