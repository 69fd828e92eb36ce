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

// Package testing provides HCI event builders for tests
package testing

// Packet indicators and event codes used by the builders
const (
	EventPacket          = 0x04
	EventCommandComplete = 0x0E
	EventCommandStatus   = 0x0F
	EventHardwareError   = 0x10
)

// Controller opcodes for reference
const (
	OpReset           uint16 = 0x0C03
	OpReadLocalName   uint16 = 0x0C14
	OpWriteBDAddr     uint16 = 0xFC01
	OpUpdateBaudRate  uint16 = 0xFC18
	OpDownloadMinidrv uint16 = 0xFC2E
	OpWriteUARTClock  uint16 = 0xFC45
	OpWriteRAM        uint16 = 0xFC4C
	OpLaunchRAM       uint16 = 0xFC4E
)

// localNameSize is the fixed size of the name returned by Read Local Name
const localNameSize = 248

// BuildCommandComplete creates a command complete event for opcode
func BuildCommandComplete(opcode uint16, status byte, ret ...byte) []byte {
	// num packets, opcode, status
	plen := 4 + len(ret)
	evt := []byte{EventPacket, EventCommandComplete, byte(plen), 0x01, byte(opcode), byte(opcode >> 8), status}
	return append(evt, ret...)
}

// BuildLocalNameResponse creates a Read Local Name response carrying name,
// NUL padded to the full 248 byte field
func BuildLocalNameResponse(name string) []byte {
	field := make([]byte, localNameSize)
	copy(field, name)
	return BuildCommandComplete(OpReadLocalName, 0x00, field...)
}

// BuildCommandStatus creates a command status event, which is not a valid
// response to any command the controller driver sends
func BuildCommandStatus(opcode uint16, status byte) []byte {
	return []byte{EventPacket, EventCommandStatus, 0x04, status, 0x01, byte(opcode), byte(opcode >> 8)}
}

// BuildHardwareError creates a hardware error event
func BuildHardwareError(code byte) []byte {
	return []byte{EventPacket, EventHardwareError, 0x01, code}
}

// BuildFirmwareRecord creates one record of a firmware image
func BuildFirmwareRecord(opcode uint16, payload ...byte) []byte {
	rec := []byte{byte(opcode), byte(opcode >> 8), byte(len(payload))}
	return append(rec, payload...)
}

// Sample values
var (
	// TestChipName is the name reported by a BCM43438 before firmware load
	TestChipName = "BCM43430A1"

	// TestBDAddr is a sample device address in text form
	TestBDAddr = "43:29:B1:55:01:01"

	// TestBDAddrBytes is TestBDAddr in controller byte order
	TestBDAddrBytes = []byte{0x01, 0x01, 0x55, 0xB1, 0x29, 0x43}
)
