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

// Package tty provides the Linux terminal line used to attach a controller
// to the kernel Bluetooth UART driver
package tty

// Linux ioctl request encoding
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
)

// iow encodes _IOW(typ, nr, size)
func iow(typ byte, nr, size uint) uint {
	return iocWrite<<iocDirShift | size<<iocSizeShift | uint(typ)<<iocTypeShift | nr<<iocNRShift
}

const sizeofInt = 4

// Requests understood by the hci_uart line discipline
var (
	hciUARTSetProto = iow('U', 200, sizeofInt)
	hciUARTSetFlags = iow('U', 203, sizeofInt)
)
