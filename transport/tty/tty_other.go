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

//go:build !linux

package tty

import (
	"errors"
	"fmt"
	"os"

	hciattach "github.com/ZaparooProject/go-hciattach"
)

// ErrUnsupported is returned on systems without the hci_uart line discipline
var ErrUnsupported = errors.New("line discipline attach requires linux")

// Line is unavailable on this platform
type Line struct {
	hciattach.Line
}

// Open always fails on this platform
func Open(path string) (*Line, error) {
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}

// OpenLine always fails on this platform
func OpenLine(path string) (hciattach.Line, error) {
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}

// FromFile always fails on this platform
func FromFile(_ *os.File, path string) (*Line, error) {
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}

// File returns nil on this platform
func (*Line) File() *os.File {
	return nil
}
