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

package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveExchange(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry(), "")
	m.ObserveExchange(hciattach.OpReset, time.Millisecond, nil)
	m.ObserveExchange(hciattach.OpReset, time.Millisecond, &hciattach.ProtocolError{
		Op: "reset", Opcode: hciattach.OpReset, Status: 0x0C, Err: hciattach.ErrCommandFailed,
	})
	m.ObserveExchange(hciattach.OpReadLocalName, time.Millisecond, &hciattach.ProtocolError{
		Op: "read local name", Opcode: hciattach.OpReadLocalName, Err: hciattach.ErrOpcodeMismatch,
	})
	m.ObserveExchange(hciattach.OpUpdateBaudRate, time.Millisecond, hciattach.ErrLinkRead)

	assert.InDelta(t, 1, testutil.ToFloat64(m.exchanges.WithLabelValues("reset", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.exchanges.WithLabelValues("reset", "status")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.exchanges.WithLabelValues("read local name", "protocol")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.exchanges.WithLabelValues("update baud rate", "io")), 0)
}

func TestObserveFirmwareAndState(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry(), "test")
	m.ObserveFirmwareRecord(200)
	m.ObserveFirmwareRecord(56)
	m.ObserveState(hciattach.StateLoadFirmware, 2*time.Second, nil)
	m.ObserveState(hciattach.StateReset2, time.Second, errors.New("no response"))
	m.SetAttached(true)

	assert.InDelta(t, 2, testutil.ToFloat64(m.firmwareRecords), 0)
	assert.InDelta(t, 256, testutil.ToFloat64(m.firmwareBytes), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.stateSeconds.WithLabelValues("load firmware")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.stateFailures.WithLabelValues("reset after firmware", "io")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.attached), 0)

	m.SetAttached(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.attached), 0)
}

func TestObserverWiring(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry(), "")
	line := hciattach.NewMockLine("/dev/ttyS1")
	ctrl, err := hciattach.New(line, hciattach.WithObserver(m))
	require.NoError(t, err)

	require.NoError(t, ctrl.Reset())
	assert.InDelta(t, 1, testutil.ToFloat64(m.exchanges.WithLabelValues("reset", "ok")), 0)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	m := New(reg, "")
	m.SetAttached(true)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

}

func TestMetricNames(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg, "")
	m.ObserveExchange(hciattach.OpReset, time.Millisecond, nil)
	m.ObserveState(hciattach.StateReset1, time.Millisecond, hciattach.ErrLinkRead)

	problems, err := testutil.GatherAndLint(reg)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
