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

import "time"

// Observer receives bring-up measurements
type Observer interface {
	// ObserveExchange is called once per command/response exchange
	ObserveExchange(op Opcode, elapsed time.Duration, err error)

	// ObserveFirmwareRecord is called after each firmware record is written
	ObserveFirmwareRecord(length int)

	// ObserveState is called when a bring-up state finishes
	ObserveState(state State, elapsed time.Duration, err error)
}

// ProgressFunc reports firmware streaming progress: records and payload
// bytes sent so far
type ProgressFunc func(records, bytes int)

type nopObserver struct{}

func (nopObserver) ObserveExchange(Opcode, time.Duration, error) {}

func (nopObserver) ObserveFirmwareRecord(int) {}

func (nopObserver) ObserveState(State, time.Duration, error) {}
