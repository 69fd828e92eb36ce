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

package frame

import "fmt"

// EncodeCommand builds an H4 command packet for the given opcode bytes
func EncodeCommand(opcodeLow, opcodeHigh byte, params []byte) ([]byte, error) {
	if len(params) > MaxParamLength {
		return nil, fmt.Errorf("command parameters too long: %d bytes", len(params))
	}

	pkt := make([]byte, CommandHeaderSize+len(params))
	pkt[0] = CommandPacket
	pkt[1] = opcodeLow
	pkt[2] = opcodeHigh
	pkt[3] = byte(len(params))
	copy(pkt[CommandHeaderSize:], params)
	return pkt, nil
}

// IsCommandComplete reports whether a raw event frame has the minimum
// command complete shape
func IsCommandComplete(evt []byte) bool {
	return len(evt) >= CommandCompleteMinSize
}

// ResponseOpcode returns the opcode bytes echoed in a command complete frame
func ResponseOpcode(evt []byte) (low, high byte) {
	return evt[OffsetOpcodeLow], evt[OffsetOpcodeHi]
}
