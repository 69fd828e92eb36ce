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

// Package detection lists serial ports that may carry a UART Bluetooth
// controller
package detection

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Port is a candidate serial port
type Port struct {
	Path    string
	Product string
	Serial  string
	VIDPID  string
	USB     bool
	Onboard bool
}

// Options filters the port list
type Options struct {
	IgnorePaths []string
	Blocklist   []string
	// OnboardOnly drops everything except SoC UARTs
	OnboardOnly bool
}

// DefaultOptions uses the default blocklist
func DefaultOptions() Options {
	return Options{Blocklist: DefaultBlocklist()}
}

// onboardPrefixes are the device names SoC UART drivers register. Radio
// modules such as the AP6212 are wired to one of these.
var onboardPrefixes = []string{
	"ttyS", "ttyAMA", "ttyAML", "ttyHS", "ttyMSM", "ttyO", "ttymxc", "ttyTHS", "ttySAC",
}

// IsOnboardUART reports whether path names a SoC UART
func IsOnboardUART(path string) bool {
	base := filepath.Base(path)
	for _, prefix := range onboardPrefixes {
		rest, ok := strings.CutPrefix(base, prefix)
		if ok && rest != "" && isDigits(rest) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ListPorts enumerates the system's serial ports and filters them
func ListPorts(opts Options) ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]Port, 0, len(details))
	for _, d := range details {
		ports = append(ports, fromDetails(d))
	}
	return Filter(ports, opts), nil
}

func fromDetails(d *enumerator.PortDetails) Port {
	p := Port{
		Path:    d.Name,
		USB:     d.IsUSB,
		Onboard: !d.IsUSB && IsOnboardUART(d.Name),
	}
	if d.IsUSB {
		p.VIDPID = FormatVIDPID(d.VID, d.PID)
		p.Product = d.Product
		p.Serial = d.SerialNumber
	}
	return p
}

// Filter drops ignored and blocklisted ports and orders the rest with SoC
// UARTs first, then by path
func Filter(ports []Port, opts Options) []Port {
	out := make([]Port, 0, len(ports))
	for _, p := range ports {
		if IsPathIgnored(p.Path, opts.IgnorePaths) {
			continue
		}
		if p.USB && IsBlocked(p.VIDPID, opts.Blocklist) {
			continue
		}
		if opts.OnboardOnly && !p.Onboard {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Onboard != out[j].Onboard {
			return out[i].Onboard
		}
		return out[i].Path < out[j].Path
	})
	return out
}
