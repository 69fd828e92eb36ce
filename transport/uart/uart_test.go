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

package uart

import (
	"context"
	"testing"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// TestLinkCreation verifies basic link properties without a device
func TestLinkCreation(t *testing.T) {
	t.Parallel()

	link := &Link{portName: "/dev/ttyUSB0", baud: 115200}
	assert.Equal(t, hciattach.LinkUART, link.Type())
	assert.Equal(t, 115200, link.Speed())
	require.NoError(t, link.Close())
}

func TestNewMode(t *testing.T) {
	t.Parallel()

	mode := newMode(921600)
	assert.Equal(t, 921600, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	_, err := New("/dev/ttyUSB0", 0)
	require.ErrorIs(t, err, hciattach.ErrInvalidSpeed)

	_, err = New("/dev/does-not-exist-hci", 115200)
	require.Error(t, err)
	assert.Equal(t, hciattach.ErrorTypeIO, hciattach.GetErrorType(err))
}

func TestProbeMissingPort(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_, err := Probe(context.Background(), "/dev/does-not-exist-hci", 115200, time.Second)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
