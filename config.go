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

package hciattach

import (
	"fmt"
	"strings"
	"time"
)

// Defaults for the BCM43xx UART controller
const (
	DefaultInitSpeed = 115200
	DefaultSpeed     = 3000000
	DefaultDeadline  = 10 * time.Second
	BreakSettle      = 500 * time.Millisecond

	// pathMax mirrors the Linux PATH_MAX including the terminator
	pathMax = 4096
)

// Config is the bring-up configuration. It is read-only once the sequence starts.
type Config struct {
	// Address is an optional device address XX:XX:XX:XX:XX:XX written after firmware load
	Address string
	// Firmware is the path of the patch RAM image
	Firmware string
	// FirmwareDir, when set, is searched for <chip name>.hcd before Firmware is used
	FirmwareDir string
	// InitSpeed is the controller's power-on baud rate
	InitSpeed int
	// Speed is the operational baud rate
	Speed int
	// Deadline bounds the whole bring-up
	Deadline time.Duration
	// Proto is the transport protocol id handed to the driver
	Proto int
	// FlowControl enables RTS/CTS
	FlowControl bool
	// PowerManagement records the sleep/nosleep policy. The BCM43xx sequence
	// does not change it.
	PowerManagement bool
	// SendBreak asserts a break before bring-up for devices that need it
	SendBreak bool
	// RawDevice asks the driver to expose a raw HCI device
	RawDevice bool
	// AMP asks the driver to create an AMP controller
	AMP bool
}

// DefaultConfig returns the BCM43xx defaults
func DefaultConfig() *Config {
	return &Config{
		Firmware:    DefaultFirmwarePath,
		InitSpeed:   DefaultInitSpeed,
		Speed:       DefaultSpeed,
		Deadline:    DefaultDeadline,
		Proto:       ProtoH4,
		FlowControl: true,
	}
}

// Validate checks the configuration before any device is opened
func (c *Config) Validate() error {
	if c.InitSpeed <= 0 {
		return fmt.Errorf("%w: initial speed %d", ErrInvalidSpeed, c.InitSpeed)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("%w: speed %d", ErrInvalidSpeed, c.Speed)
	}
	if c.Address != "" {
		if _, err := ParseBDAddr(c.Address); err != nil {
			return err
		}
	}
	return nil
}

// UARTFlags returns the transport flags bitmask for the driver
func (c *Config) UARTFlags() uint {
	var flags uint
	if c.RawDevice {
		flags |= FlagRawDevice
	}
	if c.AMP {
		flags |= FlagCreateAMP
	}
	return flags
}

// ResolveDevicePath turns a tty argument into a device path. Bare names
// such as "ttyS1" are looked up under /dev.
func ResolveDevicePath(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("%w: empty device path", ErrInvalidDevice)
	}

	path := arg
	if !strings.Contains(arg, "/") {
		path = "/dev/" + arg
	}

	if len(path) > pathMax-1 {
		return "", fmt.Errorf("%w: %d bytes", ErrPathTooLong, len(path))
	}
	return path, nil
}
