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
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-hciattach/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFirmware(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bcm43438a0.hcd")
	require.NoError(t, os.WriteFile(path, testImage(), 0o600))
	return path
}

func newAttachLine() *MockLine {
	line := NewMockLine("/dev/ttyS1")
	line.QueueResponse(OpReadLocalName, testutil.BuildLocalNameResponse(testutil.TestChipName))
	return line
}

func attachOptions(line *MockLine, rec *sleepRecorder) []AttachOption {
	return []AttachOption{
		WithLineFactory(line.Factory()),
		WithBreakSleep(rec.sleep),
		WithControllerOptions(WithSleep(func(time.Duration) {})),
	}
}

func TestAttach(t *testing.T) {
	t.Parallel()

	line := newAttachLine()
	cfg := DefaultConfig()
	cfg.Firmware = writeTestFirmware(t)
	rec := &sleepRecorder{}

	got, id, err := Attach(context.Background(), "ttyS1", cfg, attachOptions(line, rec)...)
	require.NoError(t, err)
	assert.Same(t, line, got)
	assert.Equal(t, testutil.TestChipName, id.Name)
	assert.Equal(t, cfg.Firmware, id.Firmware)
	assert.NotEmpty(t, id.Session)

	calls := line.Calls()
	assert.Equal(t, []string{"flush both", "raw flow", "speed 115200", "flush both", "write reset"}, calls[:5])
	assert.Equal(t, []string{"flush both", "speed 3000000", "ldisc 15", "proto 0"}, calls[len(calls)-4:])
	assert.NotContains(t, calls, "break")
	assert.False(t, slices.ContainsFunc(calls, func(c string) bool { return strings.HasPrefix(c, "flags") }))
	assert.Empty(t, rec.delays)

	assert.Equal(t, DisciplineHCI, line.Discipline())
	assert.Equal(t, ProtoH4, line.UARTProto())
	assert.Equal(t, 3000000, line.Speed())
	assert.False(t, line.IsClosed())
}

func TestAttachClockSwitch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		speed     int
		wantClock bool
	}{
		{name: "3000000 keeps default clock", speed: 3000000, wantClock: false},
		{name: "3500000 needs high clock", speed: 3500000, wantClock: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			line := newAttachLine()
			cfg := DefaultConfig()
			cfg.Speed = tt.speed
			cfg.Firmware = writeTestFirmware(t)

			_, _, err := Attach(context.Background(), "/dev/ttyS1", cfg, attachOptions(line, &sleepRecorder{})...)
			require.NoError(t, err)

			ops := line.WrittenOpcodes()
			if !tt.wantClock {
				assert.NotContains(t, ops, OpWriteUARTClock)
				return
			}

			// every baud change is preceded by the clock change
			clocks := 0
			for i, op := range ops {
				if op == OpWriteUARTClock {
					clocks++
					require.Less(t, i+1, len(ops))
					assert.Equal(t, OpUpdateBaudRate, ops[i+1])
				}
				if op == OpUpdateBaudRate {
					require.Positive(t, i)
					assert.Equal(t, OpWriteUARTClock, ops[i-1])
				}
			}
			assert.Equal(t, 2, clocks)
		})
	}
}

func TestAttachOptionalSteps(t *testing.T) {
	t.Parallel()

	line := newAttachLine()
	cfg := DefaultConfig()
	cfg.Firmware = writeTestFirmware(t)
	cfg.SendBreak = true
	cfg.FlowControl = false
	cfg.RawDevice = true
	cfg.Address = testutil.TestBDAddr
	rec := &sleepRecorder{}

	_, id, err := Attach(context.Background(), "ttyS1", cfg, attachOptions(line, rec)...)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestBDAddr, id.Address)

	calls := line.Calls()
	assert.Equal(t, []string{"flush both", "raw noflow", "speed 115200", "flush both", "break", "write reset"}, calls[:6])
	assert.Equal(t, []string{"ldisc 15", "flags 1", "proto 0"}, calls[len(calls)-3:])
	assert.Equal(t, []time.Duration{BreakSettle}, rec.delays)
	assert.Contains(t, line.WrittenOpcodes(), OpWriteBDAddr)
}

func TestAttachClosesLineOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup     func(*MockLine, *Config)
		wantErr   error
		name      string
		wantCalls []string
	}{
		{
			name: "raw mode",
			setup: func(l *MockLine, _ *Config) {
				l.FailOn("raw", errors.New("inappropriate ioctl for device"))
			},
		},
		{
			name: "reset refused",
			setup: func(l *MockLine, _ *Config) {
				l.QueueResponse(OpReset, testutil.BuildCommandComplete(testutil.OpReset, 0x01))
			},
			wantErr: ErrCommandFailed,
		},
		{
			name: "missing firmware",
			setup: func(_ *MockLine, c *Config) {
				c.Firmware = "/nonexistent/firmware.hcd"
			},
		},
		{
			name: "line discipline",
			setup: func(l *MockLine, _ *Config) {
				l.FailOn("ldisc", errors.New("invalid argument"))
			},
		},
		{
			name: "protocol",
			setup: func(l *MockLine, _ *Config) {
				l.FailOn("proto", errors.New("unsupported protocol"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			line := newAttachLine()
			cfg := DefaultConfig()
			cfg.Firmware = writeTestFirmware(t)
			tt.setup(line, cfg)

			got, id, err := Attach(context.Background(), "ttyS1", cfg, attachOptions(line, &sleepRecorder{})...)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Nil(t, got)
			assert.Nil(t, id)
			assert.True(t, line.IsClosed())
		})
	}
}

func TestAttachResetFailureSkipsFinalization(t *testing.T) {
	t.Parallel()

	line := newAttachLine()
	line.QueueResponse(OpReset, testutil.BuildCommandComplete(testutil.OpReset, 0x01))
	cfg := DefaultConfig()
	cfg.Firmware = writeTestFirmware(t)

	_, _, err := Attach(context.Background(), "ttyS1", cfg, attachOptions(line, &sleepRecorder{})...)
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StateReset1, stepErr.State)
	assert.Equal(t, []Opcode{OpReset}, line.WrittenOpcodes())
	assert.NotContains(t, line.Calls(), "ldisc 15")
}

func TestAttachDeadline(t *testing.T) {
	t.Parallel()

	line := NewMockLine("/dev/ttyS1")
	line.SetAutoAck(false)
	line.SetBlocking(true)
	cfg := DefaultConfig()
	cfg.Deadline = 20 * time.Millisecond

	start := time.Now()
	_, _, err := Attach(context.Background(), "ttyS1", cfg, attachOptions(line, &sleepRecorder{})...)
	require.ErrorIs(t, err, ErrDeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(err))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, line.IsClosed())
	assert.Contains(t, line.Calls(), "interrupt")
}

func TestAttachAMPFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
		raw  bool
	}{
		{name: "amp", want: "flags 4"},
		{name: "raw and amp", raw: true, want: "flags 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			line := newAttachLine()
			cfg := DefaultConfig()
			cfg.Firmware = writeTestFirmware(t)
			cfg.AMP = true
			cfg.RawDevice = tt.raw

			_, _, err := Attach(context.Background(), "ttyS1", cfg, attachOptions(line, &sleepRecorder{})...)
			require.NoError(t, err)

			calls := line.Calls()
			assert.Equal(t, []string{"ldisc 15", tt.want, "proto 0"}, calls[len(calls)-3:])
			assert.Equal(t, tt.raw, line.UARTFlags()&FlagRawDevice != 0)
			assert.Zero(t, line.UARTFlags()&(1<<1), "reset-on-init must stay clear")
		})
	}
}

func TestAttachDeadlineCoversOpen(t *testing.T) {
	t.Parallel()

	line := newAttachLine()
	cfg := DefaultConfig()
	cfg.Firmware = writeTestFirmware(t)
	cfg.Deadline = 20 * time.Millisecond

	slowOpen := func(string) (Line, error) {
		time.Sleep(200 * time.Millisecond)
		return line, nil
	}
	opts := append(attachOptions(line, &sleepRecorder{}), WithLineFactory(slowOpen))

	got, id, err := Attach(context.Background(), "ttyS1", cfg, opts...)
	require.ErrorIs(t, err, ErrDeadlineExceeded)
	assert.Nil(t, got)
	assert.Nil(t, id)
	assert.True(t, line.IsClosed())
	assert.Empty(t, line.WrittenOpcodes())
	assert.NotContains(t, line.Calls(), "ldisc 15")
}

func TestAttachDeadlineCoversBreakSettle(t *testing.T) {
	t.Parallel()

	line := newAttachLine()
	cfg := DefaultConfig()
	cfg.Firmware = writeTestFirmware(t)
	cfg.SendBreak = true
	cfg.Deadline = 20 * time.Millisecond

	opts := append(attachOptions(line, &sleepRecorder{}), WithBreakSleep(func(time.Duration) {
		time.Sleep(100 * time.Millisecond)
	}))

	_, _, err := Attach(context.Background(), "ttyS1", cfg, opts...)
	require.ErrorIs(t, err, ErrDeadlineExceeded)
	assert.True(t, line.IsClosed())
	assert.Contains(t, line.Calls(), "break")
	assert.Empty(t, line.WrittenOpcodes())
}

func TestAttachCancelledBeforeOpen(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opened := false
	_, _, err := Attach(ctx, "ttyS1", DefaultConfig(), WithLineFactory(func(string) (Line, error) {
		opened = true
		return NewMockLine("/dev/ttyS1"), nil
	}))
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, opened)
}

func TestAttachRejectsBadInput(t *testing.T) {
	t.Parallel()

	t.Run("no factory", func(t *testing.T) {
		t.Parallel()
		_, _, err := Attach(context.Background(), "ttyS1", DefaultConfig())
		require.ErrorIs(t, err, ErrNoLineFactory)
	})

	t.Run("bad address never opens", func(t *testing.T) {
		t.Parallel()
		opened := false
		cfg := DefaultConfig()
		cfg.Address = "not-an-address"
		_, _, err := Attach(context.Background(), "ttyS1", cfg, WithLineFactory(func(string) (Line, error) {
			opened = true
			return nil, errors.New("unexpected open")
		}))
		require.ErrorIs(t, err, ErrInvalidAddress)
		assert.False(t, opened)
	})

	t.Run("open failure", func(t *testing.T) {
		t.Parallel()
		_, _, err := Attach(context.Background(), "ttyS9", DefaultConfig(), WithLineFactory(func(path string) (Line, error) {
			assert.Equal(t, "/dev/ttyS9", path)
			return nil, os.ErrPermission
		}))
		require.ErrorIs(t, err, os.ErrPermission)
		assert.Contains(t, err.Error(), "/dev/ttyS9")
	})
}
