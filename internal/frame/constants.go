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

// Package frame provides H4 framing constants and helpers for HCI communication
package frame

// H4 packet type indicators. The first byte of every packet on the line.
const (
	CommandPacket = 0x01 // Commands from host to controller
	ACLPacket     = 0x02
	SCOPacket     = 0x03
	EventPacket   = 0x04 // Events from controller to host
)

// Event codes
const (
	EventCommandComplete = 0x0E
	EventCommandStatus   = 0x0F
)

// Frame layout
const (
	CommandHeaderSize = 4 // type + opcode(2) + param length
	EventHeaderSize   = 3 // type + event code + param length

	// CommandCompleteMinSize covers the header plus num_packets, opcode and status
	CommandCompleteMinSize = 7

	// Offsets into a raw command complete frame
	OffsetParamLen  = 2
	OffsetOpcodeLow = 4
	OffsetOpcodeHi  = 5
	OffsetStatus    = 6
	OffsetReturn    = 7

	MaxParamLength = 255
)

// StatusSuccess is the command complete status for a successful command
const StatusSuccess = 0x00
