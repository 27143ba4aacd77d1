// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices is a container for the LED matrix chain drivers.
//
// i2cmatrix talks to the I²C slave MCU driving up to eight daisy-chained
// 8x8 units, i2cmatrix/i2cmatrixtest emulates that slave, matrixfont renders
// scrolling text and matrixterm previews the LEDs on a terminal. The
// matrixctl command ties them together.
package devices
