// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cmatrix

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const testAddr uint16 = 0x10

var recordingData = map[string][]i2ctest.IO{
	"TestNew": {
		{Addr: testAddr, W: []uint8{0x0, 0x0}},
		{Addr: testAddr, W: []uint8{0x1, 0x2, 0x3, 0x1, 0x0}},
		{Addr: testAddr, W: []uint8{0xe}, R: []uint8{0x81, 0x82, 0x83, 0xff}}},
	"TestNewMode": {
		{Addr: testAddr, W: []uint8{0x0, 0x0}},
		{Addr: testAddr, W: []uint8{0x1, 0x3, 0x7, 0x5, 0x0}},
		{Addr: testAddr, W: []uint8{0x4, 0x5}},
		{Addr: testAddr, W: []uint8{0xe}, R: []uint8{0x2, 0x3, 0x7, 0x5}}},
	"TestRefresh": {
		{Addr: testAddr, W: []uint8{0x0, 0x0}},
		{Addr: testAddr, W: []uint8{0x1, 0x1, 0x1, 0x1, 0x0}},
		{Addr: testAddr, W: []uint8{0xe}, R: []uint8{0x1, 0x1, 0x1, 0x0}},
		{Addr: testAddr, W: []uint8{0xe}, R: []uint8{0x2, 0x1, 0x1, 0x1}}},
}

// newRecorded returns a Dev as New would leave it, without the init traffic.
func newRecorded(displays byte, mode byte) (*Dev, *i2ctest.Record) {
	rec := &i2ctest.Record{}
	dev := &Dev{
		d:          &i2c.Dev{Bus: rec, Addr: testAddr},
		displays:   displays,
		enabled:    enabledMask(displays),
		brightness: DefaultOpts.Brightness,
		mode:       mode,
	}
	return dev, rec
}

func checkOps(t *testing.T, got, want []i2ctest.IO) {
	t.Helper()
	if diff := cmp.Diff(got, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("transactions difference (-got +want):\n%s", diff)
	}
}

func TestNew(t *testing.T) {
	bus := &i2ctest.Playback{Ops: recordingData["TestNew"], DontPanic: true}
	before := Slept()
	dev, err := New(bus, &Opts{Addr: testAddr, Displays: 2, Brightness: 0x01})
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
	if d := Slept() - before; d != ResetDelay {
		t.Errorf("settle delay: got %s want %s", d, ResetDelay)
	}
	want := Info{FWVersion: 1, NumDisplays: 2, Enabled: 3, RCMode: 0x7f}
	if got := dev.Info(); got != want {
		t.Errorf("Info() = %+v want %+v", got, want)
	}
	if dev.FWVersion() != 1 || dev.NumDisplays() != 2 || dev.Enabled() != 3 || dev.RCMode() != 0x7f {
		t.Errorf("accessors do not match snapshot %+v", dev.Info())
	}
	if dev.ModeMask() != 0 {
		t.Errorf("expected row-major mode, got 0x%x", dev.ModeMask())
	}
	if s := dev.String(); len(s) == 0 {
		t.Error("empty String()")
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
}

func TestNewMode(t *testing.T) {
	// The CONNECTED block announces row-major; the requested mode follows in
	// its own write, masked to the connected units.
	bus := &i2ctest.Playback{Ops: recordingData["TestNewMode"], DontPanic: true}
	dev, err := New(bus, &Opts{Addr: testAddr, Displays: 3, Brightness: 0xf5, Mode: 0xfd})
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
	if dev.ModeMask() != 0x5 {
		t.Errorf("mode mask: got 0x%x want 0x5", dev.ModeMask())
	}
	if dev.Mode(0) != ColumnMajor || dev.Mode(1) != RowMajor || dev.Mode(2) != ColumnMajor {
		t.Errorf("unexpected per unit modes 0x%x", dev.ModeMask())
	}
	if dev.Brightness() != 0x5 {
		t.Errorf("brightness: got 0x%x want 0x5", dev.Brightness())
	}
}

func TestNewDefaults(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddr, W: []uint8{0x0, 0x0}},
		{Addr: DefaultAddr, W: []uint8{0x1, 0x1, 0x1, 0x1, 0x0}},
		{Addr: DefaultAddr, W: []uint8{0xe}, R: []uint8{0x1, 0x1, 0x1, 0x0}}},
		DontPanic: true}
	if _, err := New(bus, nil); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestNewInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts Opts
	}{
		{name: "address", opts: Opts{Addr: 0x80, Displays: 1}},
		{name: "no displays", opts: Opts{Addr: testAddr, Displays: 0}},
		{name: "too many displays", opts: Opts{Addr: testAddr, Displays: 9}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bus := &i2ctest.Playback{DontPanic: true}
			if _, err := New(bus, &tc.opts); err == nil {
				t.Error("expected error")
			}
			if bus.Count != 0 {
				t.Errorf("expected no transaction, got %d", bus.Count)
			}
		})
	}
}

func TestNewBusError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	if _, err := New(bus, &Opts{Addr: testAddr, Displays: 1}); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnabledMask(t *testing.T) {
	for n := byte(1); n <= MaxDisplays; n++ {
		if got, want := enabledMask(n), byte((1<<n)-1); got != want {
			t.Errorf("enabledMask(%d) = 0x%02x want 0x%02x", n, got, want)
		}
	}
}

func TestSetBrightness(t *testing.T) {
	dev, rec := newRecorded(1, 0)
	for level := range 256 {
		rec.Ops = nil
		if err := dev.SetBrightness(byte(level)); err != nil {
			t.Fatal(err)
		}
		want := byte(level) & 0x0f
		checkOps(t, rec.Ops, []i2ctest.IO{{Addr: testAddr, W: []byte{RegBrightness, want}}})
		if dev.Brightness() != want {
			t.Fatalf("Brightness() = 0x%x want 0x%x", dev.Brightness(), want)
		}
	}
}

func TestWriteColumnRow(t *testing.T) {
	dev, rec := newRecorded(2, 0)

	if err := dev.WriteColumn(1, 3, 0xaa); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, []i2ctest.IO{
		{Addr: testAddr, W: []byte{0x04, 0x02}},
		{Addr: testAddr, W: []byte{0x05, 0x01}},
		{Addr: testAddr, W: []byte{0x09, 0xaa}},
	})

	rec.Ops = nil
	if err := dev.WriteRow(0, 0, 0x01); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, []i2ctest.IO{
		{Addr: testAddr, W: []byte{0x05, 0x00}},
		{Addr: testAddr, W: []byte{0x06, 0x01}},
	})

	rec.Ops = nil
	if err := dev.WriteColumn(1, 7, 0x55); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, []i2ctest.IO{
		{Addr: testAddr, W: []byte{0x05, 0x01}},
		{Addr: testAddr, W: []byte{0x0d, 0x55}},
	})

	rec.Ops = nil
	if err := dev.WriteRow(1, 2, 0xf0); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, []i2ctest.IO{
		{Addr: testAddr, W: []byte{0x04, 0x00}},
		{Addr: testAddr, W: []byte{0x05, 0x01}},
		{Addr: testAddr, W: []byte{0x08, 0xf0}},
	})
}

func TestModeMaskCarriesAllUnits(t *testing.T) {
	dev, rec := newRecorded(4, 0b0101)
	if err := dev.WriteColumn(1, 0, 0xff); err != nil {
		t.Fatal(err)
	}
	if got := rec.Ops[0].W; got[0] != RegMode || got[1] != 0b0111 {
		t.Errorf("MODE write: got %#v", got)
	}
}

func TestWriteSlotInvalid(t *testing.T) {
	dev, rec := newRecorded(1, 0)
	if err := dev.WriteRow(0, Slots, 0x1); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("WriteRow: got %v want %v", err, ErrInvalidSlot)
	}
	if err := dev.WriteColumn(0, 0xff, 0x1); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("WriteColumn: got %v want %v", err, ErrInvalidSlot)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("expected no transaction, got %d", len(rec.Ops))
	}
	if dev.ModeMask() != 0 {
		t.Errorf("mode changed to 0x%x", dev.ModeMask())
	}
}

var errBus = errors.New("bus stuck")

// flakyBus fails the transaction at index fail once.
type flakyBus struct {
	i2ctest.Record
	n    int
	fail int
}

func (f *flakyBus) Tx(addr uint16, w, r []byte) error {
	f.n++
	if f.n-1 == f.fail {
		return errBus
	}
	return f.Record.Tx(addr, w, r)
}

func TestModeNotCommittedOnError(t *testing.T) {
	bus := &flakyBus{fail: 0}
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: testAddr}, displays: 1}

	err := dev.WriteColumn(0, 0, 0x1)
	if !errors.Is(err, errBus) {
		t.Fatalf("got %v want %v", err, errBus)
	}
	if dev.Mode(0) != RowMajor {
		t.Error("mode cache updated although MODE write failed")
	}
	// The retry by the caller sends MODE again.
	if err := dev.WriteColumn(0, 0, 0x1); err != nil {
		t.Fatal(err)
	}
	checkOps(t, bus.Ops, []i2ctest.IO{
		{Addr: testAddr, W: []byte{0x04, 0x01}},
		{Addr: testAddr, W: []byte{0x05, 0x00}},
		{Addr: testAddr, W: []byte{0x06, 0x01}},
	})
	if dev.Mode(0) != ColumnMajor {
		t.Error("mode cache not updated")
	}
}

func TestWriteDisplay(t *testing.T) {
	dev, rec := newRecorded(2, 0)
	content := Frame{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if err := dev.WriteDisplay(1, content); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, []i2ctest.IO{
		{Addr: testAddr, W: []byte{0x05, 0x01, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}},
	})
	if dev.ModeMask() != 0 {
		t.Error("WriteDisplay must not change the mode")
	}
}

func TestDecodeInfoMasksTopBit(t *testing.T) {
	for raw := range 256 {
		b := byte(raw)
		info := decodeInfo([]byte{b, b, b, b})
		for _, v := range []byte{info.FWVersion, info.NumDisplays, info.Enabled, info.RCMode} {
			if v&0x80 != 0 || v != b&0x7f {
				t.Fatalf("raw 0x%02x decoded to 0x%02x", b, v)
			}
		}
	}
}

func TestRefresh(t *testing.T) {
	bus := &i2ctest.Playback{Ops: recordingData["TestRefresh"], DontPanic: true}
	dev, err := New(bus, &Opts{Addr: testAddr, Displays: 1, Brightness: 1})
	if err != nil {
		t.Fatal(err)
	}
	if dev.FWVersion() != 1 {
		t.Errorf("FWVersion() = %d", dev.FWVersion())
	}
	info, err := dev.Refresh()
	if err != nil {
		t.Fatal(err)
	}
	want := Info{FWVersion: 2, NumDisplays: 1, Enabled: 1, RCMode: 1}
	if info != want || dev.Info() != want {
		t.Errorf("Refresh() = %+v, Info() = %+v want %+v", info, dev.Info(), want)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}

	// A failed refresh keeps the previous snapshot.
	if _, err := dev.Refresh(); err == nil {
		t.Error("expected error")
	}
	if dev.Info() != want {
		t.Errorf("snapshot changed to %+v", dev.Info())
	}
}

func TestFrameTranspose(t *testing.T) {
	f := Frame{0x01, 0, 0, 0, 0, 0, 0, 0x80}
	want := Frame{0x01, 0, 0, 0, 0, 0, 0, 0x80}
	if got := f.Transpose(); got != want {
		t.Errorf("Transpose() = %#v want %#v", got, want)
	}
	f = Frame{0xff}
	want = Frame{1, 1, 1, 1, 1, 1, 1, 1}
	if got := f.Transpose(); got != want {
		t.Errorf("Transpose() = %#v want %#v", got, want)
	}
	if got := f.Transpose().Transpose(); got != f {
		t.Errorf("double Transpose() = %#v want %#v", got, f)
	}
}

func TestFrameFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 8))
	img.SetGray(1, 0, color.Gray{Y: 0xff})
	img.SetGray(9, 7, color.Gray{Y: 0xff})
	img.SetGray(10, 7, color.Gray{Y: 0x10})

	if got, want := FrameFromImage(img, image.Pt(0, 0), RowMajor), (Frame{0x02}); got != want {
		t.Errorf("row-major = %#v want %#v", got, want)
	}
	if got, want := FrameFromImage(img, image.Pt(0, 0), ColumnMajor), (Frame{0, 0x01}); got != want {
		t.Errorf("column-major = %#v want %#v", got, want)
	}
	if got, want := FrameFromImage(img, image.Pt(8, 0), ColumnMajor), (Frame{0, 0x80}); got != want {
		t.Errorf("second unit = %#v want %#v", got, want)
	}
	// Partially outside the image.
	if got, want := FrameFromImage(img, image.Pt(12, 0), RowMajor), (Frame{}); got != want {
		t.Errorf("clipped = %#v want %#v", got, want)
	}
}

func TestDraw(t *testing.T) {
	dev, rec := newRecorded(2, 0b10)
	if dev.Bounds() != image.Rect(0, 0, 16, 8) {
		t.Fatalf("Bounds() = %v", dev.Bounds())
	}
	img := image.NewGray(dev.Bounds())
	img.SetGray(0, 0, color.Gray{Y: 0xff})
	img.SetGray(9, 7, color.Gray{Y: 0xff})

	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, []i2ctest.IO{
		// Unit 0 is row-major: pixel (0,0) is bit 0 of the top row, sent last.
		{Addr: testAddr, W: []byte{0x05, 0x00, 0, 0, 0, 0, 0, 0, 0, 0x01}},
		// Unit 1 is column-major: pixel (1,7) is bit 7 of the second column.
		{Addr: testAddr, W: []byte{0x05, 0x01, 0, 0, 0, 0, 0, 0, 0x80, 0}},
	})

	// Drawing inside unit 1 only rewrites unit 1 and keeps earlier content.
	rec.Ops = nil
	dot := image.NewGray(image.Rect(0, 0, 1, 1))
	dot.SetGray(0, 0, color.Gray{Y: 0xff})
	if err := dev.Draw(image.Rect(15, 0, 16, 1), dot, image.Point{}); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, []i2ctest.IO{
		{Addr: testAddr, W: []byte{0x05, 0x01, 0x01, 0, 0, 0, 0, 0, 0x80, 0}},
	})

	rec.Ops = nil
	if err := dev.Draw(image.Rect(20, 0, 30, 8), dot, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("drawing outside Bounds sent %d transactions", len(rec.Ops))
	}
}

func TestDrawScaled(t *testing.T) {
	dev, rec := newRecorded(1, 0)
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := range 32 {
		for x := range 32 {
			img.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	if err := dev.DrawScaled(img); err != nil {
		t.Fatal(err)
	}
	checkOps(t, rec.Ops, []i2ctest.IO{
		{Addr: testAddr, W: []byte{0x05, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	})
}

func TestModeString(t *testing.T) {
	for m, want := range map[Mode]string{RowMajor: "row", ColumnMajor: "column", Mode(7): "Mode(7)"} {
		if m.String() != want {
			t.Errorf("%d.String() = %q want %q", byte(m), m.String(), want)
		}
	}
}
