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
	"context"
	"io"
)

// Link is an open serial connection to a controller.
// Reads and writes block; there is no per-call timeout.
type Link interface {
	io.Reader
	io.Writer

	// Flush discards pending data in the given queue
	Flush(q Queue) error

	// SetSpeed changes the host side baud rate
	SetSpeed(baud int) error

	// Close closes the link
	Close() error

	// Type returns the link type
	Type() LinkType
}

// Line is a Link backed by a real terminal device. It adds the
// device-control operations needed to hand the line to the kernel
// Bluetooth transport driver.
type Line interface {
	Link

	// MakeRaw puts the line in raw mode with hardware flow control
	// enabled or disabled.
	MakeRaw(flow bool) error

	// SendBreak asserts a break condition on the line
	SendBreak() error

	// SetDiscipline attaches the numbered line discipline
	SetDiscipline(ldisc int) error

	// SetUARTFlags sets the transport flags bitmask
	SetUARTFlags(flags uint) error

	// SetUARTProto sets the transport protocol id
	SetUARTProto(proto int) error

	// WaitHangup blocks until the line reports hang-up or error, or ctx is done
	WaitHangup(ctx context.Context) error

	// Path returns the device path the line was opened from
	Path() string
}

// Interrupter is implemented by links whose blocking calls can be woken
// from another goroutine. Interrupted calls return ErrLinkClosed.
type Interrupter interface {
	Interrupt()
}

// LineFactory opens a Line for a device path
type LineFactory func(path string) (Line, error)

// LinkType represents the type of link
type LinkType string

const (
	// LinkTTY is a Linux terminal device driven through termios and ioctls
	LinkTTY LinkType = "tty"
	// LinkUART is a portable serial port without line discipline support
	LinkUART LinkType = "uart"
	// LinkMock is a scripted link for testing
	LinkMock LinkType = "mock"
)

// Queue selects the buffer a Flush applies to
type Queue int

const (
	// QueueInput is data received but not read
	QueueInput Queue = iota
	// QueueOutput is data written but not transmitted
	QueueOutput
	// QueueBoth is both queues
	QueueBoth
)

func (q Queue) String() string {
	switch q {
	case QueueInput:
		return "input"
	case QueueOutput:
		return "output"
	case QueueBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Line disciplines and transport settings consumed from the kernel driver
const (
	DisciplineTTY = 0
	DisciplineHCI = 15

	ProtoH4 = 0

	// hci_uart flag bits; bit 1 is reset-on-init, which attach never sets
	FlagRawDevice uint = 1 << 0
	FlagCreateAMP uint = 1 << 2
)
