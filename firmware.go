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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/go-hciattach/internal/frame"
)

// DefaultFirmwarePath is the patch RAM image loaded when none is configured
const DefaultFirmwarePath = "/lib/firmware/brcm/bcm43438a0.hcd"

const firmwareRecordHeaderSize = 3

// FirmwareRecord is one command of a firmware image
type FirmwareRecord struct {
	Payload []byte
	Opcode  Opcode
}

// Packet returns the record as an H4 command packet
func (r *FirmwareRecord) Packet() []byte {
	pkt := make([]byte, 0, frame.CommandHeaderSize+len(r.Payload))
	pkt = append(pkt, frame.CommandPacket, r.Opcode.Low(), r.Opcode.High(), byte(len(r.Payload)))
	return append(pkt, r.Payload...)
}

// FirmwareReader walks the records of a firmware image. The image has no
// header or checksum: it is a flat run of [opcode lo][opcode hi][len][payload].
type FirmwareReader struct {
	r   io.Reader
	hdr [firmwareRecordHeaderSize]byte
}

// NewFirmwareReader returns a reader over image
func NewFirmwareReader(image io.Reader) *FirmwareReader {
	return &FirmwareReader{r: image}
}

// Next returns the next record, or io.EOF when the image ends on a record
// boundary
func (fr *FirmwareReader) Next() (*FirmwareRecord, error) {
	if _, err := io.ReadFull(fr.r, fr.hdr[:]); err != nil {
		return nil, firmwareReadError(err)
	}

	rec := &FirmwareRecord{
		Opcode:  Opcode(fr.hdr[0]) | Opcode(fr.hdr[1])<<8,
		Payload: make([]byte, fr.hdr[2]),
	}
	if _, err := io.ReadFull(fr.r, rec.Payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, firmwareReadError(err)
	}
	return rec, nil
}

func firmwareReadError(err error) error {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return NewLinkError("read firmware", "", ErrFirmwareTruncated)
	case errors.Is(err, io.EOF):
		return io.EOF
	default:
		return NewLinkError("read firmware", "", err)
	}
}

// LoadFirmware streams the firmware image at path to the controller
func (c *Controller) LoadFirmware(path string) error {
	c.log.Info().Str("session", c.session).Str("firmware", path).Msg("flash firmware")

	f, err := os.Open(path) //nolint:gosec // firmware path is operator supplied
	if err != nil {
		return NewLinkError("open firmware", path, err)
	}
	defer func() { _ = f.Close() }()

	return c.StreamFirmware(f)
}

// StreamFirmware puts the controller in download mode and sends every
// record of image. Each record's acknowledgement is read but not checked.
func (c *Controller) StreamFirmware(image io.Reader) error {
	resp := make([]byte, frame.CommandCompleteMinSize)
	if _, err := c.Exchange(NewCommand(OpDownloadMinidrv), resp); err != nil {
		return fmt.Errorf("failed to load firmware: %w", err)
	}

	c.sleep(c.modeSettle)

	if err := c.link.Flush(QueueBoth); err != nil {
		return NewLinkError("flush", "", err)
	}

	fr := NewFirmwareReader(image)
	records, sent := 0, 0
	for {
		rec, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read firmware: %w", err)
		}

		if err := writePacket(c.link, rec.Packet()); err != nil {
			return fmt.Errorf("failed to write firmware: %w", err)
		}

		if _, err := ReadEvent(c.link, resp); err != nil {
			if errors.Is(err, ErrLinkClosed) {
				return fmt.Errorf("failed to write firmware: %w", err)
			}
			c.log.Debug().
				Str("session", c.session).
				Int("record", records).
				Err(err).
				Msg("firmware record not acknowledged")
		}

		if err := c.link.Flush(QueueInput); err != nil {
			return NewLinkError("flush", "", err)
		}

		records++
		sent += len(rec.Payload)
		c.observer.ObserveFirmwareRecord(len(rec.Payload))
		if c.progress != nil {
			c.progress(records, sent)
		}
	}

	c.sleep(c.readySettle)

	c.log.Info().
		Str("session", c.session).
		Int("records", records).
		Int("bytes", sent).
		Msg("firmware loaded")
	return nil
}

// LocateFirmware searches dir recursively for <chipName>.hcd, ignoring case
func LocateFirmware(dir, chipName string) (string, error) {
	if chipName == "" {
		return "", fmt.Errorf("no firmware for unnamed chip: %w", fs.ErrNotExist)
	}

	want := chipName + ".hcd"
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), want) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}
	if found == "" {
		return "", fmt.Errorf("%s not found in %s: %w", want, dir, fs.ErrNotExist)
	}
	return found, nil
}
