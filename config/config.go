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

// Package config reads hciattach configuration files written in HCL
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/ZaparooProject/go-hciattach/power"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// ErrNoDevice is returned when a file has no device block for the requested tty
var ErrNoDevice = errors.New("no matching device in configuration")

// Schema is the top level of a configuration file
type Schema struct {
	Device  []*DeviceSchema `hcl:"device,block"`
	Metrics *MetricsSchema  `hcl:"metrics,block"`
	Debug   bool            `hcl:"debug,optional"`
}

// DeviceSchema configures one serial port. Unset attributes keep the
// controller defaults.
type DeviceSchema struct {
	Path        string       `hcl:"path,label"`
	Speed       int          `hcl:"speed,optional"`
	InitSpeed   int          `hcl:"init_speed,optional"`
	Flow        *bool        `hcl:"flow,optional"`
	Sleep       bool         `hcl:"sleep,optional"`
	BDAddr      string       `hcl:"bdaddr,optional"`
	Firmware    string       `hcl:"firmware,optional"`
	FirmwareDir string       `hcl:"firmware_dir,optional"`
	Timeout     string       `hcl:"timeout,optional"`
	SendBreak   bool         `hcl:"send_break,optional"`
	Raw         bool         `hcl:"raw,optional"`
	AMP         bool         `hcl:"amp,optional"`
	Power       *PowerSchema `hcl:"power,block"`
}

// PowerSchema configures the radio enable GPIO
type PowerSchema struct {
	GPIO      string `hcl:"gpio,attr"`
	ActiveLow bool   `hcl:"active_low,optional"`
	OffTime   string `hcl:"off_time,optional"`
	Settle    string `hcl:"settle,optional"`
}

// MetricsSchema configures the Prometheus endpoint
type MetricsSchema struct {
	Listen string `hcl:"listen,attr"`
}

// ReadSchema reads and decodes the file at path
func ReadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	s := new(Schema)
	return s, s.Decode(data)
}

// Decode parses HCL source into s
func (s *Schema) Decode(data []byte) error {
	file, diag := hclsyntax.ParseConfig(data, "", hcl.Pos{Line: 1, Column: 1})
	if diag.HasErrors() {
		return diag.Errs()[0]
	}

	diag = gohcl.DecodeBody(file.Body, nil, s)
	if diag.HasErrors() {
		return diag.Errs()[0]
	}

	return nil
}

// Lookup returns the device block for tty. An empty tty selects the only
// device in the file.
func (s *Schema) Lookup(tty string) (*DeviceSchema, error) {
	if tty == "" {
		if len(s.Device) == 1 {
			return s.Device[0], nil
		}
		return nil, fmt.Errorf("%w: %d devices and none selected", ErrNoDevice, len(s.Device))
	}

	want, err := hciattach.ResolveDevicePath(tty)
	if err != nil {
		return nil, err
	}
	for _, ds := range s.Device {
		path, err := hciattach.ResolveDevicePath(ds.Path)
		if err != nil {
			return nil, err
		}
		if path == want {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoDevice, tty)
}

// Apply overlays the device settings onto cfg
func (ds *DeviceSchema) Apply(cfg *hciattach.Config) error {
	if ds.Speed != 0 {
		cfg.Speed = ds.Speed
	}
	if ds.InitSpeed != 0 {
		cfg.InitSpeed = ds.InitSpeed
	}
	if ds.Flow != nil {
		cfg.FlowControl = *ds.Flow
	}
	if ds.Sleep {
		cfg.PowerManagement = true
	}
	if ds.BDAddr != "" {
		cfg.Address = ds.BDAddr
	}
	if ds.Firmware != "" {
		cfg.Firmware = ds.Firmware
	}
	if ds.FirmwareDir != "" {
		cfg.FirmwareDir = ds.FirmwareDir
	}
	if ds.Timeout != "" {
		d, err := time.ParseDuration(ds.Timeout)
		if err != nil {
			return fmt.Errorf("device %s: invalid timeout: %w", ds.Path, err)
		}
		cfg.Deadline = d
	}
	cfg.SendBreak = cfg.SendBreak || ds.SendBreak
	cfg.RawDevice = cfg.RawDevice || ds.Raw
	cfg.AMP = cfg.AMP || ds.AMP
	return nil
}

// Config returns the defaults with the device settings applied
func (ds *DeviceSchema) Config() (*hciattach.Config, error) {
	cfg := hciattach.DefaultConfig()
	if err := ds.Apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("device %s: %w", ds.Path, err)
	}
	return cfg, nil
}

// Options converts the power block to power options
func (ps *PowerSchema) Options() ([]power.Option, error) {
	var opts []power.Option
	if ps.ActiveLow {
		opts = append(opts, power.WithActiveLow())
	}

	off, settle := power.DefaultOffTime, power.DefaultSettle
	var err error
	if ps.OffTime != "" {
		if off, err = time.ParseDuration(ps.OffTime); err != nil {
			return nil, fmt.Errorf("power %s: invalid off_time: %w", ps.GPIO, err)
		}
	}
	if ps.Settle != "" {
		if settle, err = time.ParseDuration(ps.Settle); err != nil {
			return nil, fmt.Errorf("power %s: invalid settle: %w", ps.GPIO, err)
		}
	}
	return append(opts, power.WithTimings(off, settle)), nil
}
