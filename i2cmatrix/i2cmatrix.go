// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cmatrix

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// ResetDelay is how long the slave needs to re-initialize after RESET.
const ResetDelay = 500 * time.Millisecond

const packageName = "i2cmatrix"

var (
	// ErrInvalidSlot is returned when a row or column index is not in 0..7.
	ErrInvalidSlot = errors.New(packageName + ": slot index out of range")

	sleep = time.Sleep
)

// DefaultOpts is a single display at the default address, dimmed and in
// row-major mode.
var DefaultOpts = Opts{
	Addr:       DefaultAddr,
	Displays:   1,
	Brightness: 0x01,
	Mode:       0x00,
}

// Opts holds the configuration sent to the slave at initialization.
type Opts struct {
	// Addr is the 7 bit I²C address of the slave.
	Addr uint16
	// Displays is the number of chained units, 1 to 8.
	Displays int
	// Brightness is the initial global brightness. Only the low 4 bits are
	// used.
	Brightness byte
	// Mode is the initial orientation bitmask, bit i set for column-major on
	// unit i. The CONNECTED block always announces all units as row-major;
	// a non-zero Mode is pushed with a separate MODE write afterward.
	Mode byte
}

// Dev is a handle to the matrix slave.
type Dev struct {
	mu         sync.Mutex
	d          *i2c.Dev
	displays   byte
	enabled    byte
	brightness byte
	// mode is the orientation bitmask last acknowledged by the slave.
	mode byte
	info Info
	// canvas backs Draw; lazily allocated.
	canvas *image1bit.VerticalLSB
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// New resets the slave, sends the chain configuration and reads back the
// device information.
//
// bus must already be open; the caller keeps ownership of it. New blocks for
// ResetDelay while the slave re-initializes.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Addr > 0x7f {
		return nil, fmt.Errorf("%s: invalid address 0x%x", packageName, opts.Addr)
	}
	if opts.Displays < 1 || opts.Displays > MaxDisplays {
		return nil, fmt.Errorf("%s: invalid number of displays %d", packageName, opts.Displays)
	}
	dev := &Dev{
		d:          &i2c.Dev{Bus: bus, Addr: opts.Addr},
		displays:   byte(opts.Displays),
		brightness: opts.Brightness & brightnessMask,
	}
	if err := dev.init(opts.Mode); err != nil {
		return nil, err
	}
	return dev, nil
}

func (dev *Dev) init(mode byte) error {
	// The value is ignored by the slave.
	if err := dev.d.Tx([]byte{RegReset, 0x00}, nil); err != nil {
		return wrap(err)
	}
	sleep(ResetDelay)

	dev.enabled = enabledMask(dev.displays)
	w := []byte{RegConnected, dev.displays, dev.enabled, dev.brightness, byte(RowMajor)}
	if err := dev.d.Tx(w, nil); err != nil {
		return wrap(err)
	}
	dev.mode = 0
	if mode &= dev.enabled; mode != 0 {
		if err := dev.sendMode(mode); err != nil {
			return err
		}
	}
	_, err := dev.readDeviceInfo()
	return err
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s{%s, displays=%d}", packageName, dev.d, dev.displays)
}

// Halt implements conn.Resource.
//
// The slave has no shutdown command so this is a no-op; the LEDs keep their
// last content.
func (dev *Dev) Halt() error {
	return nil
}

// Displays returns the number of units the driver was configured with.
func (dev *Dev) Displays() int {
	return int(dev.displays)
}

// WriteDisplay replaces the eight slots of unit. content[0] is the top row
// (or the leftmost column), so the bytes go out last to first.
func (dev *Dev) WriteDisplay(unit byte, content Frame) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeDisplay(unit, content)
}

func (dev *Dev) writeDisplay(unit byte, content Frame) error {
	w := make([]byte, 0, 2+Slots)
	w = append(w, RegUnit, unit)
	for ix := Slots - 1; ix >= 0; ix-- {
		w = append(w, content[ix])
	}
	return wrap(dev.d.Tx(w, nil))
}

// WriteColumn switches unit to column-major mode if needed and stores value
// into slot col.
func (dev *Dev) WriteColumn(unit, col, value byte) error {
	return dev.writeSlot(unit, col, value, ColumnMajor)
}

// WriteRow switches unit to row-major mode if needed and stores value into
// slot row.
func (dev *Dev) WriteRow(unit, row, value byte) error {
	return dev.writeSlot(unit, row, value, RowMajor)
}

func (dev *Dev) writeSlot(unit, slot, value byte, m Mode) error {
	if slot >= Slots {
		return ErrInvalidSlot
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.orient(unit, m); err != nil {
		return err
	}
	if err := dev.d.Tx([]byte{RegUnit, unit}, nil); err != nil {
		return wrap(err)
	}
	return wrap(dev.d.Tx([]byte{RegByte1 + slot, value}, nil))
}

// orient sends a MODE write only when unit's cached orientation differs from
// m.
func (dev *Dev) orient(unit byte, m Mode) error {
	bit := byte(1) << unit
	isColumn := dev.mode&bit != 0
	if isColumn == (m == ColumnMajor) {
		return nil
	}
	if m == ColumnMajor {
		return dev.sendMode(dev.mode | bit)
	}
	return dev.sendMode(dev.mode &^ bit)
}

// sendMode transmits the whole bitmask; the cache follows only once the
// write went through.
func (dev *Dev) sendMode(mode byte) error {
	if err := dev.d.Tx([]byte{RegMode, mode}, nil); err != nil {
		return wrap(err)
	}
	dev.mode = mode
	return nil
}

// Mode returns the cached orientation of unit.
func (dev *Dev) Mode(unit byte) Mode {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.modeOf(unit)
}

func (dev *Dev) modeOf(unit byte) Mode {
	if dev.mode&(byte(1)<<unit) != 0 {
		return ColumnMajor
	}
	return RowMajor
}

// ModeMask returns the cached orientation bitmask of all units.
func (dev *Dev) ModeMask() byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.mode
}

// SetBrightness sets the global brightness of all units. Only the low 4 bits
// of level are used.
func (dev *Dev) SetBrightness(level byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.brightness = level & brightnessMask
	return wrap(dev.d.Tx([]byte{RegBrightness, dev.brightness}, nil))
}

// Brightness returns the last brightness sent to the slave.
func (dev *Dev) Brightness() byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.brightness
}

// Enabled returns the enabled mask the slave reported.
func (dev *Dev) Enabled() byte {
	return dev.Info().Enabled
}

// FWVersion returns the firmware version the slave reported.
func (dev *Dev) FWVersion() byte {
	return dev.Info().FWVersion
}

// NumDisplays returns the number of units the slave reported.
func (dev *Dev) NumDisplays() byte {
	return dev.Info().NumDisplays
}

// RCMode returns the mode flag the slave reported.
func (dev *Dev) RCMode() byte {
	return dev.Info().RCMode
}

// Info returns the cached device information snapshot. It does not touch the
// bus; use Refresh to read it again.
func (dev *Dev) Info() Info {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.info
}

// Refresh queries the slave for its device information and updates the
// snapshot.
func (dev *Dev) Refresh() (Info, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.readDeviceInfo()
}

// readDeviceInfo writes GETVERSION and reads the reply with a repeated start.
// The snapshot is left untouched on error.
func (dev *Dev) readDeviceInfo() (Info, error) {
	r := make([]byte, InfoSize)
	if err := dev.d.Tx([]byte{RegGetVersion}, r); err != nil {
		return dev.info, wrap(err)
	}
	dev.info = decodeInfo(r)
	return dev.info, nil
}

var _ conn.Resource = &Dev{}
var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
