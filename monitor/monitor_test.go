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

package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func attachedLine(t *testing.T) *hciattach.MockLine {
	t.Helper()
	line := hciattach.NewMockLine("/dev/ttyS1")
	require.NoError(t, line.SetDiscipline(hciattach.DisciplineHCI))
	return line
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	line := attachedLine(t)
	mon := New(line, nil)
	assert.Equal(t, ReasonNone, mon.Reason())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- mon.Run(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}

	assert.Equal(t, ReasonCancelled, mon.Reason())
	assert.Equal(t, hciattach.DisciplineTTY, line.Discipline())
	assert.Equal(t, "ldisc 0", line.Calls()[len(line.Calls())-1])
}

func TestRunHangup(t *testing.T) {
	t.Parallel()

	line := attachedLine(t)
	mon := New(line, nil)
	var called atomic.Bool
	mon.OnHangup = func() { called.Store(true) }

	line.Hangup()
	require.NoError(t, mon.Run(context.Background()))
	assert.Equal(t, ReasonHangup, mon.Reason())
	assert.True(t, called.Load())
	assert.Equal(t, hciattach.DisciplineTTY, line.Discipline())

	require.NoError(t, mon.Close())
	assert.True(t, line.IsClosed())
}

func TestRunRestoreFailure(t *testing.T) {
	t.Parallel()

	line := attachedLine(t)
	line.FailOn("ldisc", errors.New("bad file descriptor"))
	line.Hangup()

	err := New(line, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restore line discipline")
}

func TestRunWaitFailure(t *testing.T) {
	t.Parallel()

	line := attachedLine(t)
	line.Interrupt()

	mon := New(line, nil)
	err := mon.Run(context.Background())
	require.ErrorIs(t, err, hciattach.ErrLinkClosed)
	assert.Equal(t, ReasonFailed, mon.Reason())
	assert.Equal(t, hciattach.DisciplineTTY, line.Discipline())
}

func TestReasonString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hangup", ReasonHangup.String())
	assert.Equal(t, "Reason(9)", Reason(9).String())
}
