// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cmatrix

import "time"

// slept accumulates the delays New asked for while testing.
var slept time.Duration

func init() {
	sleep = func(d time.Duration) { slept += d }
}

// Slept returns the total settle time requested so far.
func Slept() time.Duration {
	return slept
}
