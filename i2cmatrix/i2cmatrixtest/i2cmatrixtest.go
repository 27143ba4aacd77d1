// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cmatrixtest is meant to be used to test drivers and programs
// talking to the LED matrix slave without the hardware.
//
// Slave behaves like the slave firmware: writes go to an auto-incrementing
// register file, slot writes light LEDs according to the selected unit's
// mode and GETVERSION answers with the current configuration.
package i2cmatrixtest

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/ledchain/devices/i2cmatrix"
)

// DefaultVersion is the firmware version reported unless changed.
const DefaultVersion = 1

// Slave emulates the matrix slave on an I²C bus.
//
// It records every transaction in Ops the same way i2ctest.Record does.
type Slave struct {
	sync.Mutex
	Addr    uint16
	Version byte
	Ops     []i2ctest.IO
	// Resets counts the RESET writes received.
	Resets int

	// Register file.
	Connected  byte
	Enabled    byte
	Brightness byte
	Mode       byte
	Unit       byte

	// units holds the lit LEDs of each unit, one row-major frame each.
	units [i2cmatrix.MaxDisplays]i2cmatrix.Frame
}

// New returns an emulated slave answering at addr.
func New(addr uint16) *Slave {
	return &Slave{Addr: addr, Version: DefaultVersion}
}

func (s *Slave) String() string {
	return fmt.Sprintf("i2cmatrixtest(0x%02x)", s.Addr)
}

// SetSpeed implements i2c.Bus.
func (s *Slave) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus.
func (s *Slave) Tx(addr uint16, w, r []byte) error {
	s.Lock()
	defer s.Unlock()
	if addr != s.Addr {
		return fmt.Errorf("i2cmatrixtest: no device at address 0x%02x", addr)
	}
	if len(w) == 0 {
		return errors.New("i2cmatrixtest: empty write")
	}
	io := i2ctest.IO{Addr: addr, W: make([]byte, len(w))}
	copy(io.W, w)

	reg := w[0]
	switch {
	case reg == i2cmatrix.RegGetVersion:
		reply := []byte{s.Version, s.Connected, s.Enabled, s.Mode}
		n := copy(r, reply)
		for i := n; i < len(r); i++ {
			r[i] = 0xff
		}
		if len(r) != 0 {
			io.R = make([]byte, len(r))
			copy(io.R, r)
		}
		s.Ops = append(s.Ops, io)
		return nil
	case len(r) != 0:
		return fmt.Errorf("i2cmatrixtest: register 0x%02x is write only", reg)
	case reg == i2cmatrix.RegReset:
		s.reset()
		s.Ops = append(s.Ops, io)
		return nil
	}
	for _, b := range w[1:] {
		if reg > i2cmatrix.RegByte8 {
			return fmt.Errorf("i2cmatrixtest: write past register 0x%02x", i2cmatrix.RegByte8)
		}
		s.store(reg, b)
		reg++
	}
	s.Ops = append(s.Ops, io)
	return nil
}

func (s *Slave) reset() {
	s.Resets++
	s.Connected = 0
	s.Enabled = 0
	s.Brightness = 0
	s.Mode = 0
	s.Unit = 0
	s.units = [i2cmatrix.MaxDisplays]i2cmatrix.Frame{}
}

func (s *Slave) store(reg, b byte) {
	switch reg {
	case i2cmatrix.RegConnected:
		s.Connected = b
	case i2cmatrix.RegEnable:
		s.Enabled = b
	case i2cmatrix.RegBrightness:
		s.Brightness = b & 0x0f
	case i2cmatrix.RegMode:
		s.Mode = b
	case i2cmatrix.RegUnit:
		s.Unit = b
	default:
		if s.Unit >= i2cmatrix.MaxDisplays {
			return
		}
		s.storeSlot(reg-i2cmatrix.RegByte1, b)
	}
}

// storeSlot lights slot of the selected unit. Slots count from the bottom row
// or the rightmost column.
func (s *Slave) storeSlot(slot, b byte) {
	f := &s.units[s.Unit]
	if s.Mode&(1<<s.Unit) == 0 {
		f[i2cmatrix.Slots-1-int(slot)] = b
		return
	}
	x := i2cmatrix.Slots - 1 - int(slot)
	for y := range i2cmatrix.Slots {
		if b&(1<<y) != 0 {
			f[y] |= 1 << x
		} else {
			f[y] &^= 1 << x
		}
	}
}

// Frame returns the LEDs lit on unit as a row-major frame.
func (s *Slave) Frame(unit int) i2cmatrix.Frame {
	s.Lock()
	defer s.Unlock()
	return s.units[unit]
}

// Image returns the LEDs of the connected units as a 1 bit image, unit 0 on
// the left.
func (s *Slave) Image() *image1bit.VerticalLSB {
	s.Lock()
	defer s.Unlock()
	n := int(s.Connected)
	if n > i2cmatrix.MaxDisplays {
		n = i2cmatrix.MaxDisplays
	}
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, n*i2cmatrix.Slots, i2cmatrix.Slots))
	for unit := range n {
		for y, row := range s.units[unit] {
			for x := range i2cmatrix.Slots {
				img.SetBit(unit*i2cmatrix.Slots+x, y, row&(1<<x) != 0)
			}
		}
	}
	return img
}

// ClearOps forgets the recorded transactions.
func (s *Slave) ClearOps() {
	s.Lock()
	defer s.Unlock()
	s.Ops = nil
}

var _ i2c.Bus = &Slave{}
