// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/ledchain/devices/i2cmatrix"
	"github.com/ledchain/devices/matrixfont"
)

// env is what every command runs against.
type env struct {
	dev      *i2cmatrix.Dev
	log      zerolog.Logger
	out      io.Writer
	interval time.Duration
}

type command struct {
	name  string
	usage string
	run   func(e *env, args []string) error
}

var commands = []command{
	{"info", "info", runInfo},
	{"brightness", "brightness <0-15>", runBrightness},
	{"clear", "clear", runClear},
	{"frame", "frame <unit> <b0> ... <b7>", runFrame},
	{"row", "row <unit> <row> <value>", runRow},
	{"col", "col <unit> <col> <value>", runCol},
	{"text", "text [-font 5x7|go|file.ttf] [-count n] <text>", runText},
	{"image", "image <file>", runImage},
	{"demo", "demo [-frames n]", runDemo},
}

var errUsage = errors.New("invalid arguments")

func run(e *env, args []string) error {
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		e.log.Debug().Str("cmd", c.name).Strs("args", args[1:]).Msg("running")
		if err := c.run(e, args[1:]); err != nil {
			if errors.Is(err, errUsage) {
				return fmt.Errorf("%w; usage: %s", err, c.usage)
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUsage, err)
	}
	return byte(v), nil
}

func parseBytes(args []string) ([]byte, error) {
	out := make([]byte, len(args))
	for i, a := range args {
		v, err := parseByte(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func runInfo(e *env, args []string) error {
	info, err := e.dev.Refresh()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "firmware=%d displays=%d enabled=%#02x mode=%#02x brightness=%d\n",
		info.FWVersion, info.NumDisplays, info.Enabled, info.RCMode, e.dev.Brightness())
	return err
}

func runBrightness(e *env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	level, err := parseByte(args[0])
	if err != nil {
		return err
	}
	if level > 15 {
		e.log.Warn().Uint8("level", level).Msg("brightness truncated to 4 bits")
	}
	return e.dev.SetBrightness(level)
}

func runClear(e *env, args []string) error {
	for unit := range e.dev.Displays() {
		if err := e.dev.WriteDisplay(byte(unit), i2cmatrix.Frame{}); err != nil {
			return err
		}
	}
	return nil
}

func runFrame(e *env, args []string) error {
	if len(args) != 1+i2cmatrix.Slots {
		return errUsage
	}
	v, err := parseBytes(args)
	if err != nil {
		return err
	}
	var f i2cmatrix.Frame
	copy(f[:], v[1:])
	return e.dev.WriteDisplay(v[0], f)
}

func runRow(e *env, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	v, err := parseBytes(args)
	if err != nil {
		return err
	}
	return e.dev.WriteRow(v[0], v[1], v[2])
}

func runCol(e *env, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	v, err := parseBytes(args)
	if err != nil {
		return err
	}
	return e.dev.WriteColumn(v[0], v[1], v[2])
}

func runText(e *env, args []string) error {
	fs := flag.NewFlagSet("text", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	face := fs.String("font", "5x7", "5x7, go or the path of a TrueType font")
	count := fs.Int("count", 1, "number of times the text scrolls through")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}
	text := strings.Join(fs.Args(), " ")

	var cols []byte
	switch *face {
	case "5x7":
		cols = matrixfont.Render(text)
	case "go":
		c, err := ttfColumns(goregular.TTF, text)
		if err != nil {
			return err
		}
		cols = c
	default:
		data, err := os.ReadFile(*face)
		if err != nil {
			return err
		}
		c, err := ttfColumns(data, text)
		if err != nil {
			return err
		}
		cols = c
	}
	e.log.Info().Str("text", text).Int("columns", len(cols)).Msg("scrolling")
	m := matrixfont.NewMarquee(e.dev, e.dev.Displays(), cols)
	return m.Scroll(*count, e.interval)
}

// ttfColumns rasterizes text with a TrueType font sized for 8 rows, the
// baseline on the bottom row.
func ttfColumns(data []byte, text string) ([]byte, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: i2cmatrix.Slots, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()
	w := font.MeasureString(face, text).Ceil()
	img := image.NewGray(image.Rect(0, 0, w, i2cmatrix.Slots))
	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(0, i2cmatrix.Slots-1),
	}
	d.DrawString(text)
	return matrixfont.Columns(img), nil
}

func runImage(e *env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}
	e.log.Info().Str("format", format).Stringer("size", img.Bounds().Size()).Msg("drawing image")
	return e.dev.DrawScaled(img)
}

func runDemo(e *env, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	frames := fs.Int("frames", 64, "number of animation frames")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	b := e.dev.Bounds()
	for i := range *frames {
		if err := e.dev.Draw(b, bouncingBall(b.Dx(), i), image.Point{}); err != nil {
			return err
		}
		time.Sleep(e.interval)
	}
	return nil
}

// bouncingBall draws frame i of a ball bouncing between the ends of a w
// pixel wide chain over a floor line.
func bouncingBall(w, i int) image.Image {
	dc := gg.NewContext(w, i2cmatrix.Slots)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	span := float64(w - 6)
	pos := math.Mod(float64(i), 2*span)
	if pos > span {
		pos = 2*span - pos
	}
	height := math.Abs(math.Sin(float64(i)*math.Pi/8)) * 2
	dc.DrawCircle(pos+3, 3.5-height, 2.5)
	dc.Fill()
	dc.SetLineWidth(1)
	dc.DrawLine(0, 7.5, float64(w), 7.5)
	dc.Stroke()
	return dc.Image()
}
