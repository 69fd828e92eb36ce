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
)

// BDAddr is a 6-byte Bluetooth device address in controller byte order:
// index 0 holds the rightmost group of the textual form.
type BDAddr [6]byte

const bdaddrTextLen = 17

// ParseBDAddr parses an address of the form XX:XX:XX:XX:XX:XX
func ParseBDAddr(s string) (BDAddr, error) {
	var addr BDAddr
	if !isBDAddr(s) {
		return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	for i := 0; i < len(addr); i++ {
		addr[len(addr)-1-i] = hexNibble(s[i*3])<<4 | hexNibble(s[i*3+1])
	}
	return addr, nil
}

// String returns the textual form, most significant group first
func (a BDAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[5], a[4], a[3], a[2], a[1], a[0])
}

// isBDAddr checks length, hex digit pairs and colon separators
func isBDAddr(s string) bool {
	if len(s) != bdaddrTextLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i%3 == 2 {
			if s[i] != ':' {
				return false
			}
			continue
		}
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
