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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBDAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    BDAddr
		wantErr bool
	}{
		{
			name:  "upper case",
			input: "43:29:B1:55:01:01",
			want:  BDAddr{0x01, 0x01, 0x55, 0xB1, 0x29, 0x43},
		},
		{
			name:  "lower case",
			input: "aa:bb:cc:dd:ee:ff",
			want:  BDAddr{0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA},
		},
		{
			name:  "ordering",
			input: "00:11:22:33:44:55",
			want:  BDAddr{0x55, 0x44, 0x33, 0x22, 0x11, 0x00},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "00:11:22:33:44:5", wantErr: true},
		{name: "too long", input: "00:11:22:33:44:55:", wantErr: true},
		{name: "non-hex", input: "00:11:22:33:44:5G", wantErr: true},
		{name: "dash separators", input: "00-11-22-33-44-55", wantErr: true},
		{name: "missing colons", input: "001122334455xxxxx", wantErr: true},
		{name: "colon in digit position", input: "0:011:22:33:44:55", wantErr: true},
		{name: "spaces", input: " 0:11:22:33:44:55", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseBDAddr(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAddress)
				assert.Equal(t, ErrorTypeConfig, GetErrorType(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBDAddrString(t *testing.T) {
	t.Parallel()

	addr, err := ParseBDAddr("de:ad:be:ef:00:01")
	require.NoError(t, err)
	assert.Equal(t, "DE:AD:BE:EF:00:01", addr.String())
	assert.Equal(t, byte(0x01), addr[0])
	assert.Equal(t, byte(0xDE), addr[5])
}
