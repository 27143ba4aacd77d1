// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ledchain/devices/i2cmatrix"
)

// config is the resolved matrixctl configuration.
type config struct {
	Bus      string
	Emulate  bool
	Interval time.Duration
	Opts     i2cmatrix.Opts
}

func defaultConfig() config {
	return config{
		Interval: 80 * time.Millisecond,
		Opts:     i2cmatrix.DefaultOpts,
	}
}

type fileConfig struct {
	Bus        string `toml:"bus"`
	Address    int64  `toml:"address"`
	Displays   int    `toml:"displays"`
	Brightness int    `toml:"brightness"`
	Mode       int64  `toml:"mode"`
	Emulate    bool   `toml:"emulate"`
	Interval   string `toml:"interval"`
}

// loadConfig overrides cfg with the keys defined in the TOML file at path.
func loadConfig(path string, cfg *config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load matrixctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		return fmt.Errorf("load matrixctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("bus") {
		cfg.Bus = strings.TrimSpace(raw.Bus)
	}
	if meta.IsDefined("address") {
		if raw.Address < 0 || raw.Address > 0x7f {
			return fmt.Errorf("parse address: 0x%x is not a 7 bit address", raw.Address)
		}
		cfg.Opts.Addr = uint16(raw.Address)
	}
	if meta.IsDefined("displays") {
		if raw.Displays < 1 || raw.Displays > i2cmatrix.MaxDisplays {
			return fmt.Errorf("parse displays: %d not in 1..%d", raw.Displays, i2cmatrix.MaxDisplays)
		}
		cfg.Opts.Displays = raw.Displays
	}
	if meta.IsDefined("brightness") {
		if raw.Brightness < 0 || raw.Brightness > 15 {
			return fmt.Errorf("parse brightness: %d not in 0..15", raw.Brightness)
		}
		cfg.Opts.Brightness = byte(raw.Brightness)
	}
	if meta.IsDefined("mode") {
		if raw.Mode < 0 || raw.Mode > 0xff {
			return fmt.Errorf("parse mode: 0x%x is not a bitmask", raw.Mode)
		}
		cfg.Opts.Mode = byte(raw.Mode)
	}
	if meta.IsDefined("emulate") {
		cfg.Emulate = raw.Emulate
	}
	if meta.IsDefined("interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Interval))
		if err != nil {
			return fmt.Errorf("parse interval: %w", err)
		}
		cfg.Interval = d
	}
	return nil
}
