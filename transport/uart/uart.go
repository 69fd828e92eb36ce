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

// Package uart provides a portable serial link for talking to a controller
// without attaching it to the kernel driver
package uart

import (
	"context"
	"fmt"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"go.bug.st/serial"
)

// DefaultReadTimeout bounds each read so an unresponsive controller ends a
// probe instead of hanging it
const DefaultReadTimeout = time.Second

// Link is a hciattach.Link over go.bug.st/serial
type Link struct {
	port     serial.Port
	portName string
	baud     int
}

func newMode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// New opens portName at baud, 8N1
func New(portName string, baud int) (*Link, error) {
	if baud <= 0 {
		return nil, fmt.Errorf("%w: %d", hciattach.ErrInvalidSpeed, baud)
	}

	port, err := serial.Open(portName, newMode(baud))
	if err != nil {
		return nil, hciattach.NewLinkError("open", portName, err)
	}

	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		_ = port.Close()
		return nil, hciattach.NewLinkError("set read timeout", portName, err)
	}

	return &Link{
		port:     port,
		portName: portName,
		baud:     baud,
	}, nil
}

// Read reads from the port. A read that times out returns no data.
func (l *Link) Read(p []byte) (int, error) {
	n, err := l.port.Read(p)
	if err != nil {
		return n, hciattach.NewLinkError("read", l.portName, fmt.Errorf("%w: %w", hciattach.ErrLinkRead, err))
	}
	return n, nil
}

// Write writes p to the port
func (l *Link) Write(p []byte) (int, error) {
	n, err := l.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", l.portName, err)
	}
	return n, nil
}

// Flush discards buffered data
func (l *Link) Flush(q hciattach.Queue) error {
	if q != hciattach.QueueOutput {
		if err := l.port.ResetInputBuffer(); err != nil {
			return fmt.Errorf("reset input buffer: %w", err)
		}
	}
	if q != hciattach.QueueInput {
		if err := l.port.ResetOutputBuffer(); err != nil {
			return fmt.Errorf("reset output buffer: %w", err)
		}
	}
	return nil
}

// SetSpeed changes the port's baud rate
func (l *Link) SetSpeed(baud int) error {
	if err := l.port.SetMode(newMode(baud)); err != nil {
		return fmt.Errorf("set %d baud: %w", baud, err)
	}
	l.baud = baud
	return nil
}

// Speed returns the current baud rate
func (l *Link) Speed() int {
	return l.baud
}

// Close closes the port, unblocking any pending read
func (l *Link) Close() error {
	if l.port == nil {
		return nil
	}
	if err := l.port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", l.portName, err)
	}
	return nil
}

// Type returns hciattach.LinkUART
func (*Link) Type() hciattach.LinkType {
	return hciattach.LinkUART
}

// Probe resets the controller on portName and returns its name. The port
// is left as it was found: no firmware, speed or line discipline change.
func Probe(ctx context.Context, portName string, baud int, timeout time.Duration, opts ...hciattach.Option) (string, error) {
	link, err := New(portName, baud)
	if err != nil {
		return "", err
	}
	defer func() { _ = link.Close() }()

	ctrl, err := hciattach.New(link, opts...)
	if err != nil {
		return "", err
	}

	var name string
	err = hciattach.RunWithDeadline(ctx, timeout, link, func(context.Context) error {
		if err := ctrl.Reset(); err != nil {
			return err
		}
		var nameErr error
		name, nameErr = ctrl.ReadLocalName()
		return nameErr
	})
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", portName, err)
	}
	return name, nil
}
