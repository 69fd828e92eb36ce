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
	"fmt"
	"io"
	"sync"

	testutil "github.com/ZaparooProject/go-hciattach/internal/testing"
)

// MockLine is a scripted Line for tests. Every command written to it is
// answered from the responses queued for its opcode, or with a successful
// command complete event when auto acknowledgement is on.
//
// Each line operation is appended to a call log so tests can assert the
// order in which a line was configured.
type MockLine struct {
	responses  map[Opcode][][]byte
	failures   map[string]error
	shortWrite map[Opcode]bool
	interrupt  chan struct{}
	hangup     chan struct{}
	path       string
	rx         []byte
	written    [][]byte
	calls      []string
	speed      int
	discipline int
	flags      uint
	proto      int
	mu         sync.Mutex
	autoAck    bool
	blocking   bool
	closed     bool
}

// NewMockLine creates a mock line for path with auto acknowledgement on
func NewMockLine(path string) *MockLine {
	return &MockLine{
		responses:  make(map[Opcode][][]byte),
		failures:   make(map[string]error),
		shortWrite: make(map[Opcode]bool),
		interrupt:  make(chan struct{}),
		hangup:     make(chan struct{}),
		path:       path,
		autoAck:    true,
		proto:      -1,
	}
}

// QueueResponse queues evt as the reply to the next command with opcode op
func (m *MockLine) QueueResponse(op Opcode, evt []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[op] = append(m.responses[op], append([]byte(nil), evt...))
}

// SetAutoAck controls whether commands without a queued response are
// acknowledged
func (m *MockLine) SetAutoAck(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoAck = on
}

// SetBlocking makes reads with no pending data wait for Interrupt or Close
// instead of returning io.EOF
func (m *MockLine) SetBlocking(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocking = on
}

// FailOn makes the named operation return err. Names are the first word of
// the call log entries: flush, raw, speed, break, ldisc, flags, proto, write.
func (m *MockLine) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// SetShortWrite makes writes of commands with opcode op lose their last byte
func (m *MockLine) SetShortWrite(op Opcode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortWrite[op] = true
}

// Calls returns the call log
func (m *MockLine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Written returns every packet written, in order
func (m *MockLine) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	for i, p := range m.written {
		out[i] = append([]byte(nil), p...)
	}
	return out
}

// WrittenOpcodes returns the opcode of every command written, in order
func (m *MockLine) WrittenOpcodes() []Opcode {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ops []Opcode
	for _, p := range m.written {
		if op, ok := packetOpcode(p); ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// Speed returns the host baud rate last set
func (m *MockLine) Speed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

// Discipline returns the line discipline last set
func (m *MockLine) Discipline() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discipline
}

// UARTFlags returns the transport flags last set
func (m *MockLine) UARTFlags() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags
}

// UARTProto returns the protocol id last set, or -1
func (m *MockLine) UARTProto() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proto
}

// IsClosed reports whether Close was called
func (m *MockLine) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Hangup simulates the remote end dropping the line
func (m *MockLine) Hangup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.hangup:
	default:
		close(m.hangup)
	}
}

// Read returns pending response bytes
func (m *MockLine) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrLinkClosed
	}
	if len(m.rx) > 0 {
		n := copy(p, m.rx)
		m.rx = m.rx[n:]
		m.mu.Unlock()
		return n, nil
	}
	blocking := m.blocking
	interrupt := m.interrupt
	m.mu.Unlock()

	if !blocking {
		return 0, io.EOF
	}
	<-interrupt
	return 0, ErrLinkClosed
}

// Write records p and queues the reply to the command it carries
func (m *MockLine) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrLinkClosed
	}

	op, isCmd := packetOpcode(p)
	m.calls = append(m.calls, fmt.Sprintf("write %s", op))
	if err := m.failures["write"]; err != nil {
		return 0, err
	}
	m.written = append(m.written, append([]byte(nil), p...))

	if !isCmd {
		return len(p), nil
	}
	if m.shortWrite[op] {
		return len(p) - 1, nil
	}

	if queued := m.responses[op]; len(queued) > 0 {
		m.rx = append(m.rx, queued[0]...)
		m.responses[op] = queued[1:]
	} else if m.autoAck {
		m.rx = append(m.rx, testutil.BuildCommandComplete(uint16(op), 0x00)...)
	}
	return len(p), nil
}

// Flush drops pending response bytes when the input queue is selected
func (m *MockLine) Flush(q Queue) error {
	if err := m.record("flush "+q.String(), "flush"); err != nil {
		return err
	}
	if q != QueueOutput {
		m.mu.Lock()
		m.rx = nil
		m.mu.Unlock()
	}
	return nil
}

// SetSpeed records the host baud rate
func (m *MockLine) SetSpeed(baud int) error {
	if err := m.record(fmt.Sprintf("speed %d", baud), "speed"); err != nil {
		return err
	}
	m.mu.Lock()
	m.speed = baud
	m.mu.Unlock()
	return nil
}

// MakeRaw records raw mode
func (m *MockLine) MakeRaw(flow bool) error {
	if flow {
		return m.record("raw flow", "raw")
	}
	return m.record("raw noflow", "raw")
}

// SendBreak records a break
func (m *MockLine) SendBreak() error {
	return m.record("break", "break")
}

// SetDiscipline records the line discipline
func (m *MockLine) SetDiscipline(ldisc int) error {
	if err := m.record(fmt.Sprintf("ldisc %d", ldisc), "ldisc"); err != nil {
		return err
	}
	m.mu.Lock()
	m.discipline = ldisc
	m.mu.Unlock()
	return nil
}

// SetUARTFlags records the transport flags
func (m *MockLine) SetUARTFlags(flags uint) error {
	if err := m.record(fmt.Sprintf("flags %d", flags), "flags"); err != nil {
		return err
	}
	m.mu.Lock()
	m.flags = flags
	m.mu.Unlock()
	return nil
}

// SetUARTProto records the protocol id
func (m *MockLine) SetUARTProto(proto int) error {
	if err := m.record(fmt.Sprintf("proto %d", proto), "proto"); err != nil {
		return err
	}
	m.mu.Lock()
	m.proto = proto
	m.mu.Unlock()
	return nil
}

// WaitHangup blocks until Hangup, Close or ctx is done
func (m *MockLine) WaitHangup(ctx context.Context) error {
	m.mu.Lock()
	hangup := m.hangup
	interrupt := m.interrupt
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-hangup:
		return nil
	case <-interrupt:
		return ErrLinkClosed
	}
}

// Interrupt wakes blocked reads, which then fail with ErrLinkClosed
func (m *MockLine) Interrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "interrupt")
	select {
	case <-m.interrupt:
	default:
		close(m.interrupt)
	}
}

// Close marks the line closed and wakes blocked reads
func (m *MockLine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.calls = append(m.calls, "close")
	select {
	case <-m.interrupt:
	default:
		close(m.interrupt)
	}
	return nil
}

// Path returns the path the mock was created with
func (m *MockLine) Path() string {
	return m.path
}

// Type returns LinkMock
func (*MockLine) Type() LinkType {
	return LinkMock
}

// Factory returns a LineFactory that hands out m regardless of path
func (m *MockLine) Factory() LineFactory {
	return func(string) (Line, error) {
		return m, nil
	}
}

func (m *MockLine) record(call, op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.failures[op]
}

// packetOpcode extracts the opcode of an H4 command packet
func packetOpcode(p []byte) (Opcode, bool) {
	if len(p) < 4 || p[0] != 0x01 {
		return 0, false
	}
	return Opcode(p[1]) | Opcode(p[2])<<8, true
}
