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
	"bytes"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-hciattach/internal/frame"
)

// Exchange flushes the link, sends cmd and reads its command complete event
// into resp. It returns the number of event bytes read.
//
// The exchange succeeds only if the event has the command complete shape,
// echoes the command's opcode and carries a success status.
func (c *Controller) Exchange(cmd Command, resp []byte) (int, error) {
	return c.exchange(cmd, resp, true)
}

func (c *Controller) exchange(cmd Command, resp []byte, flush bool) (n int, err error) {
	start := time.Now()
	defer func() {
		c.observer.ObserveExchange(cmd.Opcode, time.Since(start), err)
	}()

	pkt, err := cmd.Bytes()
	if err != nil {
		return 0, err
	}

	if flush {
		if err = c.link.Flush(QueueBoth); err != nil {
			return 0, NewLinkError("flush", "", err)
		}
	}

	if err = writePacket(c.link, pkt); err != nil {
		return 0, fmt.Errorf("failed to write %s command: %w", cmd.Opcode, err)
	}

	n, err = ReadEvent(c.link, resp)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s response: %w", cmd.Opcode, err)
	}

	if err = validateCommandComplete(cmd.Opcode, resp[:n]); err != nil {
		return n, err
	}

	c.log.Trace().
		Str("session", c.session).
		Str("command", cmd.Opcode.String()).
		Int("length", n).
		Msg("command complete")
	return n, nil
}

// validateCommandComplete checks shape, opcode echo and status of a raw event
func validateCommandComplete(op Opcode, evt []byte) error {
	if !frame.IsCommandComplete(evt) {
		return &ProtocolError{Op: op.String(), Opcode: op, Length: len(evt), Err: ErrEventTooShort}
	}

	low, high := frame.ResponseOpcode(evt)
	if low != op.Low() || high != op.High() {
		return &ProtocolError{
			Op:     op.String(),
			Opcode: op,
			Got:    Opcode(low) | Opcode(high)<<8,
			Err:    ErrOpcodeMismatch,
		}
	}

	if status := evt[frame.OffsetStatus]; status != frame.StatusSuccess {
		return &ProtocolError{Op: op.String(), Opcode: op, Status: status, Err: ErrCommandFailed}
	}
	return nil
}

// writePacket writes pkt in a single call. A short write is never retried.
func writePacket(link Link, pkt []byte) error {
	n, err := link.Write(pkt)
	if err != nil {
		return NewLinkError("write", "", fmt.Errorf("%w: %w", ErrLinkWrite, err))
	}
	if n != len(pkt) {
		return NewLinkError("write", "", fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(pkt)))
	}
	return nil
}

// Reset issues HCI_Reset
func (c *Controller) Reset() error {
	resp := make([]byte, frame.CommandCompleteMinSize)
	if _, err := c.exchange(NewCommand(OpReset), resp, false); err != nil {
		return fmt.Errorf("failed to reset chip: %w", err)
	}
	return nil
}

// ReadLocalName returns the controller's name, truncated to fit the name
// capacity with room for a terminator
func (c *Controller) ReadLocalName() (string, error) {
	resp := make([]byte, c.nameCap+frame.CommandCompleteMinSize)
	n, err := c.Exchange(NewCommand(OpReadLocalName), resp)
	if err != nil {
		return "", fmt.Errorf("failed to read local name: %w", err)
	}

	nameLen := int(resp[frame.OffsetParamLen]) - 1
	if nameLen > c.nameCap {
		nameLen = c.nameCap
	}
	name := resp[frame.OffsetReturn:n]
	if nameLen >= 0 && nameLen < len(name) {
		name = name[:nameLen]
	}
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if len(name) > c.nameCap-1 {
		name = name[:c.nameCap-1]
	}
	return string(name), nil
}

// SetClock selects the controller's UART clock
func (c *Controller) SetClock(clock byte) error {
	c.log.Info().Str("session", c.session).Uint8("clock", clock).Msg("set controller clock")

	resp := make([]byte, frame.CommandCompleteMinSize)
	if _, err := c.Exchange(NewCommand(OpWriteUARTClock, clock), resp); err != nil {
		return fmt.Errorf("failed to update clock: %w", err)
	}
	return nil
}

// SetSpeed changes the controller's UART baud rate and then the host's.
// Rates above ClockSwitchThreshold first move the controller to its
// 48 MHz clock.
func (c *Controller) SetSpeed(baud int) error {
	if baud <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSpeed, baud)
	}

	if baud > ClockSwitchThreshold {
		if err := c.SetClock(Clock48MHz); err != nil {
			return err
		}
	}

	c.log.Info().Str("session", c.session).Int("baud", baud).Msg("set controller uart speed")

	resp := make([]byte, frame.CommandCompleteMinSize)
	if _, err := c.Exchange(NewCommand(OpUpdateBaudRate, speedParams(uint32(baud))...), resp); err != nil {
		return fmt.Errorf("failed to update baudrate: %w", err)
	}

	if err := c.SetHostSpeed(baud); err != nil {
		return fmt.Errorf("can't set host baud rate: %w", err)
	}
	return nil
}

// SetAddress writes the controller's public device address
func (c *Controller) SetAddress(addr BDAddr) error {
	c.log.Info().Str("session", c.session).Str("bdaddr", addr.String()).Msg("set bdaddr")

	resp := make([]byte, frame.CommandCompleteMinSize)
	if _, err := c.Exchange(NewCommand(OpWriteBDAddr, addr[:]...), resp); err != nil {
		return fmt.Errorf("failed to set bdaddr: %w", err)
	}
	return nil
}
