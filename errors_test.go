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
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := getErrorTypeTestCases()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func getErrorTypeTestCases() []struct {
	err  error
	name string
	want ErrorType
} {
	return []struct {
		err  error
		name string
		want ErrorType
	}{
		{
			name: "link read",
			err:  NewLinkError("read", "/dev/ttyS1", ErrLinkRead),
			want: ErrorTypeIO,
		},
		{
			name: "short write",
			err:  fmt.Errorf("reset: %w", NewLinkError("write", "", ErrShortWrite)),
			want: ErrorTypeIO,
		},
		{
			name: "truncated firmware",
			err:  NewLinkError("read firmware", "", ErrFirmwareTruncated),
			want: ErrorTypeIO,
		},
		{
			name: "opcode mismatch",
			err:  &ProtocolError{Op: "reset", Opcode: OpReset, Got: OpReadLocalName, Err: ErrOpcodeMismatch},
			want: ErrorTypeProtocol,
		},
		{
			name: "wrapped command failure",
			err:  &StepError{State: StateReset1, Err: fmt.Errorf("failed: %w", ErrCommandFailed)},
			want: ErrorTypeProtocol,
		},
		{
			name: "invalid address",
			err:  fmt.Errorf("%w: %q", ErrInvalidAddress, "zz"),
			want: ErrorTypeConfig,
		},
		{
			name: "path too long",
			err:  ErrPathTooLong,
			want: ErrorTypeConfig,
		},
		{
			name: "deadline",
			err:  fmt.Errorf("initialization failed: %w", ErrDeadlineExceeded),
			want: ErrorTypeTimeout,
		},
		{
			name: "nil",
			err:  nil,
			want: ErrorTypeNone,
		},
		{
			name: "plain error",
			err:  io.ErrUnexpectedEOF,
			want: ErrorTypeIO,
		},
	}
}

func TestIsProtocolError(t *testing.T) {
	t.Parallel()

	assert.False(t, IsProtocolError(nil))
	assert.False(t, IsProtocolError(ErrLinkRead))
	assert.True(t, IsProtocolError(ErrEventTooShort))
	assert.True(t, IsProtocolError(fmt.Errorf("identify: %w",
		&ProtocolError{Op: "read local name", Opcode: OpReadLocalName, Status: 0x12, Err: ErrCommandFailed})))
}

func TestProtocolErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *ProtocolError
		name string
		want string
	}{
		{
			name: "too short",
			err:  &ProtocolError{Op: "reset", Opcode: OpReset, Length: 5, Err: ErrEventTooShort},
			want: "reset (0x0C03): event shorter than command complete: 5 bytes",
		},
		{
			name: "mismatch",
			err:  &ProtocolError{Op: "reset", Opcode: OpReset, Got: 0x0C14, Err: ErrOpcodeMismatch},
			want: "reset (0x0C03): response opcode mismatch: got 0x0C14",
		},
		{
			name: "status",
			err:  &ProtocolError{Op: "update baud rate", Opcode: OpUpdateBaudRate, Status: 0x11, Err: ErrCommandFailed},
			want: "update baud rate (0xFC18): command failed: status 0x11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := error(&StepError{State: StateLoadFirmware, Err: context.Canceled})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "load firmware: context canceled", err.Error())

	var stepErr *StepError
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &stepErr)
	assert.Equal(t, StateLoadFirmware, stepErr.State)
}

func TestLinkErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewLinkError("open", "/dev/ttyS1", errors.New("permission denied"))
	assert.Equal(t, "open /dev/ttyS1: permission denied", err.Error())
	assert.Equal(t, ErrorTypeIO, err.Type)
	assert.Equal(t, "flush: link closed", NewLinkError("flush", "", ErrLinkClosed).Error())
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
	assert.Equal(t, "none", ErrorTypeNone.String())
}
