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
	"io"

	"github.com/ZaparooProject/go-hciattach/internal/frame"
)

// Event is a decoded HCI event frame
type Event struct {
	// Params holds the parameter bytes actually read. It may be shorter
	// than ParamLen when the caller's buffer truncated the frame.
	Params   []byte
	Code     byte
	ParamLen byte
}

// ReadEvent reads one event frame from r into buf and returns the number of
// bytes stored, including the 3 header bytes.
//
// Bytes preceding the event packet indicator are discarded without limit, so
// a stream that never carries one blocks until the reader fails. Parameters
// beyond len(buf)-3 are left unread; the truncation is not reported.
func ReadEvent(r io.Reader, buf []byte) (int, error) {
	if len(buf) < frame.EventHeaderSize {
		return 0, fmt.Errorf("%w: event buffer of %d bytes", ErrBufferTooSmall, len(buf))
	}

	for {
		if err := readFull(r, buf[:1]); err != nil {
			return 0, err
		}
		if buf[0] == frame.EventPacket {
			break
		}
	}

	if err := readFull(r, buf[1:frame.EventHeaderSize]); err != nil {
		return 0, err
	}

	remain := int(buf[frame.OffsetParamLen])
	if limit := len(buf) - frame.EventHeaderSize; remain > limit {
		remain = limit
	}

	end := frame.EventHeaderSize + remain
	if err := readFull(r, buf[frame.EventHeaderSize:end]); err != nil {
		return 0, err
	}
	return end, nil
}

// ParseEvent decodes a raw frame as returned by ReadEvent
func ParseEvent(raw []byte) (*Event, error) {
	if len(raw) < frame.EventHeaderSize || raw[0] != frame.EventPacket {
		return nil, fmt.Errorf("%w: not an event frame", ErrEventTooShort)
	}
	return &Event{
		Code:     raw[1],
		ParamLen: raw[2],
		Params:   raw[frame.EventHeaderSize:],
	}, nil
}

// readFull fills p, retrying partial reads. A read that returns no data is
// treated as a failure, matching a closed or hung-up descriptor.
func readFull(r io.Reader, p []byte) error {
	for off := 0; off < len(p); {
		n, err := r.Read(p[off:])
		if n > 0 {
			off += n
			continue
		}
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		var linkErr *LinkError
		if errors.As(err, &linkErr) {
			return err
		}
		return NewLinkError("read", "", fmt.Errorf("%w: %w", ErrLinkRead, err))
	}
	return nil
}
