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

	"github.com/ZaparooProject/go-hciattach/internal/frame"
)

// Opcode is a 16-bit HCI command opcode. On the wire it is sent low byte first.
type Opcode uint16

// Low returns the first opcode byte on the wire
func (o Opcode) Low() byte {
	return byte(o)
}

// High returns the second opcode byte on the wire
func (o Opcode) High() byte {
	return byte(o >> 8)
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opcode 0x%04X", uint16(o))
}

// Controller command opcodes. The 0xFCxx commands are Broadcom vendor
// specific.
const (
	OpReset           Opcode = 0x0C03
	OpReadLocalName   Opcode = 0x0C14
	OpWriteBDAddr     Opcode = 0xFC01
	OpUpdateBaudRate  Opcode = 0xFC18
	OpDownloadMinidrv Opcode = 0xFC2E
	OpWriteUARTClock  Opcode = 0xFC45
)

var opcodeNames = map[Opcode]string{
	OpReset:           "reset",
	OpReadLocalName:   "read local name",
	OpWriteBDAddr:     "write bdaddr",
	OpUpdateBaudRate:  "update baud rate",
	OpDownloadMinidrv: "download minidriver",
	OpWriteUARTClock:  "write uart clock",
}

// UART clock settings for OpWriteUARTClock
const (
	Clock48MHz byte = 1
	Clock24MHz byte = 2
)

// ClockSwitchThreshold is the highest baud rate the controller reaches on
// its default UART clock
const ClockSwitchThreshold = 3000000

// Command is an HCI command ready to be sent
type Command struct {
	params []byte
	Opcode Opcode
}

// NewCommand builds a command. The parameters are copied.
func NewCommand(op Opcode, params ...byte) Command {
	return Command{
		Opcode: op,
		params: append([]byte(nil), params...),
	}
}

// Params returns a copy of the command parameters
func (c Command) Params() []byte {
	return append([]byte(nil), c.params...)
}

// Bytes returns the H4 packet for the command
func (c Command) Bytes() ([]byte, error) {
	pkt, err := frame.EncodeCommand(c.Opcode.Low(), c.Opcode.High(), c.params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", c.Opcode, err)
	}
	return pkt, nil
}

// speedParams encodes a baud rate for OpUpdateBaudRate: two reserved bytes
// followed by the rate as little-endian 32 bits
func speedParams(baud uint32) []byte {
	return []byte{
		0x00, 0x00,
		byte(baud),
		byte(baud >> 8),
		byte(baud >> 16),
		byte(baud >> 24),
	}
}
