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
	"errors"
	"fmt"
)

// I/O errors
var (
	ErrLinkRead          = errors.New("link read failed")
	ErrLinkWrite         = errors.New("link write failed")
	ErrShortWrite        = errors.New("short write")
	ErrLinkClosed        = errors.New("link closed")
	ErrFirmwareTruncated = errors.New("firmware image truncated")
)

// Protocol errors
var (
	ErrEventTooShort  = errors.New("event shorter than command complete")
	ErrOpcodeMismatch = errors.New("response opcode mismatch")
	ErrCommandFailed  = errors.New("command failed")
)

// Configuration errors
var (
	ErrInvalidAddress = errors.New("invalid device address")
	ErrPathTooLong    = errors.New("device path too long")
	ErrInvalidDevice  = errors.New("invalid serial device")
	ErrInvalidSpeed   = errors.New("invalid baud rate")
	ErrBufferTooSmall = errors.New("buffer too small")
	ErrNoLineFactory  = errors.New("line factory not provided")
)

// ErrDeadlineExceeded is returned when the bring-up deadline elapses.
var ErrDeadlineExceeded = errors.New("initialization timed out")

// ErrorType classifies an error for reporting
type ErrorType int

const (
	// ErrorTypeIO covers descriptor and file failures, including short writes
	ErrorTypeIO ErrorType = iota
	// ErrorTypeProtocol covers malformed or unsuccessful controller responses
	ErrorTypeProtocol
	// ErrorTypeConfig covers invalid user supplied configuration
	ErrorTypeConfig
	// ErrorTypeTimeout covers the bring-up deadline
	ErrorTypeTimeout
	// ErrorTypeNone is reported for a nil error
	ErrorTypeNone
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeIO:
		return "io"
	case ErrorTypeProtocol:
		return "protocol"
	case ErrorTypeConfig:
		return "config"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNone:
		return "none"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// LinkError wraps an I/O failure on the serial link or the firmware image
type LinkError struct {
	Err  error
	Op   string
	Port string
	Type ErrorType
}

func (e *LinkError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// NewLinkError creates a new I/O error for the given operation
func NewLinkError(op, port string, err error) *LinkError {
	return &LinkError{
		Op:   op,
		Port: port,
		Err:  err,
		Type: ErrorTypeIO,
	}
}

// ProtocolError reports a command complete event that failed validation
type ProtocolError struct {
	Err    error
	Op     string
	Opcode Opcode
	Got    Opcode
	Status byte
	Length int
}

func (e *ProtocolError) Error() string {
	switch {
	case errors.Is(e.Err, ErrEventTooShort):
		return fmt.Sprintf("%s (0x%04X): %v: %d bytes", e.Op, uint16(e.Opcode), e.Err, e.Length)
	case errors.Is(e.Err, ErrOpcodeMismatch):
		return fmt.Sprintf("%s (0x%04X): %v: got 0x%04X", e.Op, uint16(e.Opcode), e.Err, uint16(e.Got))
	default:
		return fmt.Sprintf("%s (0x%04X): %v: status 0x%02X", e.Op, uint16(e.Opcode), e.Err, e.Status)
	}
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// StepError reports the bring-up state in which the sequence aborted
type StepError struct {
	Err   error
	State State
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// GetErrorType classifies err. A nil error is ErrorTypeNone. Unknown errors
// are reported as I/O errors, which is what the descriptor and file layers
// return.
func GetErrorType(err error) ErrorType {
	var linkErr *LinkError
	var protoErr *ProtocolError
	switch {
	case err == nil:
		return ErrorTypeNone
	case errors.Is(err, ErrDeadlineExceeded):
		return ErrorTypeTimeout
	case errors.As(err, &protoErr),
		errors.Is(err, ErrEventTooShort),
		errors.Is(err, ErrOpcodeMismatch),
		errors.Is(err, ErrCommandFailed):
		return ErrorTypeProtocol
	case errors.Is(err, ErrInvalidAddress),
		errors.Is(err, ErrPathTooLong),
		errors.Is(err, ErrInvalidDevice),
		errors.Is(err, ErrInvalidSpeed),
		errors.Is(err, ErrBufferTooSmall),
		errors.Is(err, ErrNoLineFactory):
		return ErrorTypeConfig
	case errors.As(err, &linkErr):
		return linkErr.Type
	default:
		return ErrorTypeIO
	}
}

// IsProtocolError reports whether err was caused by an invalid controller response
func IsProtocolError(err error) bool {
	return err != nil && GetErrorType(err) == ErrorTypeProtocol
}
