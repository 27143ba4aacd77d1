// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cmatrix

import "fmt"

// Registers understood by the slave firmware. A write transaction starts at
// the register named by its first byte and auto-increments from there.
const (
	// RegReset resets the slave to its defaults on any write.
	RegReset byte = 0x00
	// RegConnected holds the number of chained units.
	RegConnected byte = 0x01
	// RegEnable holds the enabled unit bitmask.
	RegEnable byte = 0x02
	// RegBrightness holds the global brightness in its low 4 bits.
	RegBrightness byte = 0x03
	// RegMode holds the per unit orientation, bit i set for column-major.
	RegMode byte = 0x04
	// RegUnit selects the unit the BYTE1..BYTE8 registers address.
	RegUnit byte = 0x05
	// RegByte1 through RegByte8 are the eight slots of the selected unit.
	RegByte1 byte = 0x06
	RegByte8 byte = 0x0d
	// RegGetVersion triggers the 4 byte device information reply.
	RegGetVersion byte = 0x0e
)

const (
	// DefaultAddr is the slave address used by the reference firmware.
	DefaultAddr uint16 = 0x10
	// Slots is the number of rows (or columns) in a unit.
	Slots = 8
	// MaxDisplays is the longest chain the slave can drive.
	MaxDisplays = 8
	// InfoSize is the length of the GETVERSION reply.
	InfoSize = 4

	brightnessMask byte = 0x0f
	// The top bit of every information byte is reserved.
	infoMask byte = 0x7f
)

// Mode is the orientation of a unit's slot bytes.
type Mode byte

const (
	// RowMajor makes each slot byte one row of the unit.
	RowMajor Mode = 0
	// ColumnMajor makes each slot byte one column of the unit.
	ColumnMajor Mode = 1
)

func (m Mode) String() string {
	switch m {
	case RowMajor:
		return "row"
	case ColumnMajor:
		return "column"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

// Info is the device information last reported by the slave.
type Info struct {
	FWVersion   byte
	NumDisplays byte
	Enabled     byte
	RCMode      byte
}

func decodeInfo(r []byte) Info {
	return Info{
		FWVersion:   r[0] & infoMask,
		NumDisplays: r[1] & infoMask,
		Enabled:     r[2] & infoMask,
		RCMode:      r[3] & infoMask,
	}
}

// enabledMask returns the bitmask with the n low bits set.
func enabledMask(n byte) byte {
	return byte(uint16(1)<<n - 1)
}
