// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// matrixctl controls a chain of 8x8 LED matrices behind the I²C matrix slave.
//
// With -emulate no hardware is needed: an emulated slave receives the
// transactions and the LEDs are previewed on the terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/ledchain/devices/i2cmatrix"
	"github.com/ledchain/devices/i2cmatrix/i2cmatrixtest"
	"github.com/ledchain/devices/matrixterm"
)

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "matrixctl").Logger()
}

// previewBus forwards to an emulated slave and redraws its LEDs after every
// transaction.
type previewBus struct {
	*i2cmatrixtest.Slave
	term *matrixterm.Dev
}

func (p *previewBus) Tx(addr uint16, w, r []byte) error {
	if err := p.Slave.Tx(addr, w, r); err != nil {
		return err
	}
	p.term.SetBrightness(p.Slave.Brightness)
	img := p.Slave.Image()
	return p.term.Draw(img.Bounds(), img, img.Bounds().Min)
}

// openBus returns the bus to use and the function releasing it.
func openBus(cfg *config) (i2c.Bus, func() error, error) {
	if cfg.Emulate {
		term := matrixterm.New(&matrixterm.Opts{W: cfg.Opts.Displays * i2cmatrix.Slots, H: i2cmatrix.Slots})
		return &previewBus{Slave: i2cmatrixtest.New(cfg.Opts.Addr), term: term}, term.Halt, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	b, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, nil, fmt.Errorf("open I²C bus %q: %w", cfg.Bus, err)
	}
	return b, b.Close, nil
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: matrixctl [flags] <command> [args]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(flag.CommandLine.Output(), "  %s\n", c.usage)
	}
	fmt.Fprintf(flag.CommandLine.Output(), "\nflags:\n")
	flag.PrintDefaults()
}

func mainImpl() error {
	cfg := defaultConfig()
	configPath := flag.String("config", "", "TOML configuration file")
	bus := flag.String("bus", "", "I²C bus to use")
	addr := flag.Uint("addr", uint(cfg.Opts.Addr), "slave address")
	displays := flag.Int("displays", cfg.Opts.Displays, "number of chained displays (1-8)")
	brightness := flag.Uint("brightness", uint(cfg.Opts.Brightness), "initial brightness (0-15)")
	mode := flag.Uint("mode", uint(cfg.Opts.Mode), "initial column-major bitmask")
	emulate := flag.Bool("emulate", false, "drive an emulated slave previewed on the terminal")
	interval := flag.Duration("interval", cfg.Interval, "animation step")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	logger := newLogger(os.Stderr, *verbose)
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			return err
		}
		logger.Debug().Str("path", *configPath).Msg("loaded config")
	}
	// Flags set on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bus":
			cfg.Bus = *bus
		case "addr":
			cfg.Opts.Addr = uint16(min(*addr, 0xffff))
		case "displays":
			cfg.Opts.Displays = *displays
		case "brightness":
			cfg.Opts.Brightness = byte(*brightness)
		case "mode":
			cfg.Opts.Mode = byte(*mode)
		case "emulate":
			cfg.Emulate = *emulate
		case "interval":
			cfg.Interval = *interval
		}
	})
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	b, release, err := openBus(&cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn().Err(err).Msg("releasing bus")
		}
	}()

	dev, err := i2cmatrix.New(b, &cfg.Opts)
	if err != nil {
		return err
	}
	logger.Info().
		Stringer("dev", dev).
		Uint8("firmware", dev.FWVersion()).
		Uint8("displays", dev.NumDisplays()).
		Bool("emulated", cfg.Emulate).
		Msg("initialized")

	e := &env{dev: dev, log: logger, out: os.Stdout, interval: cfg.Interval}
	return run(e, flag.Args())
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "matrixctl: %v\n", err)
		os.Exit(1)
	}
}
