// go-hciattach
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-hciattach.
//
// go-hciattach is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-hciattach is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-hciattach; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"fmt"
	"strconv"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/ZaparooProject/go-hciattach/config"
)

// plan is the resolved input for one attach
type plan struct {
	cfg     *hciattach.Config
	power   *config.PowerSchema
	tty     string
	metrics string
	debug   bool
}

// applyArgs applies the positional arguments that follow the tty:
// speed, flow control, power management and device address.
func applyArgs(cfg *hciattach.Config, args []string) error {
	for i, arg := range args {
		switch i {
		case 0:
			speed, err := strconv.Atoi(arg)
			if err != nil || speed <= 0 {
				return fmt.Errorf("%w: %q", hciattach.ErrInvalidSpeed, arg)
			}
			cfg.Speed = speed
		case 1:
			cfg.FlowControl = arg == "flow"
		case 2:
			cfg.PowerManagement = arg == "sleep"
		case 3:
			cfg.Address = arg
		default:
			return fmt.Errorf("unexpected argument %q", arg)
		}
	}
	return nil
}

// buildPlan merges the defaults, the configuration file, the positional
// arguments and the flags, in that order of precedence. changed reports
// whether a flag was set on the command line.
func buildPlan(args []string, changed func(name string) bool) (*plan, error) {
	p := &plan{
		cfg:     hciattach.DefaultConfig(),
		tty:     args[0],
		metrics: metricsAddr,
		debug:   debug,
	}

	if configFile != "" {
		schema, err := config.ReadSchema(configFile)
		if err != nil {
			return nil, err
		}
		ds, err := schema.Lookup(p.tty)
		if err != nil {
			return nil, err
		}
		if err := ds.Apply(p.cfg); err != nil {
			return nil, err
		}
		p.power = ds.Power
		if schema.Metrics != nil && !changed("metrics") {
			p.metrics = schema.Metrics.Listen
		}
		p.debug = p.debug || schema.Debug
	}

	if err := applyArgs(p.cfg, args[1:]); err != nil {
		return nil, err
	}

	if changed("timeout") {
		p.cfg.Deadline = time.Duration(timeout) * time.Second
	}
	if changed("initial-speed") {
		p.cfg.InitSpeed = initSpeed
	}
	if firmware != "" {
		p.cfg.Firmware = firmware
	}
	if firmwareDir != "" {
		p.cfg.FirmwareDir = firmwareDir
	}
	if powerGPIO != "" {
		if p.power == nil {
			p.power = &config.PowerSchema{}
		}
		p.power.GPIO = powerGPIO
	}
	p.cfg.SendBreak = p.cfg.SendBreak || sendBreak
	p.cfg.RawDevice = p.cfg.RawDevice || rawDevice
	p.cfg.AMP = p.cfg.AMP || ampDevice

	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
