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

// Package monitor keeps an attached line open until it hangs up or the
// process is asked to stop, then hands it back to the terminal layer
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
)

// Reason is why a monitor stopped
type Reason int

const (
	// ReasonNone means the monitor has not stopped
	ReasonNone Reason = iota
	// ReasonHangup means the line reported hang-up or an error condition
	ReasonHangup
	// ReasonCancelled means the context was cancelled, normally by a signal
	ReasonCancelled
	// ReasonFailed means waiting on the line failed
	ReasonFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "running"
	case ReasonHangup:
		return "hangup"
	case ReasonCancelled:
		return "cancelled"
	case ReasonFailed:
		return "failed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Monitor watches an attached line
type Monitor struct {
	line     hciattach.Line
	log      types.Logger
	OnHangup func()
	reason   Reason
	mu       sync.Mutex
}

// New creates a monitor for line. A nil logger discards output.
func New(line hciattach.Line, log types.Logger) *Monitor {
	if log == nil {
		log = logging.New(logging.Zerolog, "monitor", io.Discard)
	}
	return &Monitor{
		line: line,
		log:  log,
	}
}

// Reason returns why Run returned
func (m *Monitor) Reason() Reason {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

// Run blocks until the line hangs up or ctx is done, then restores the
// N_TTY line discipline. Hang-up and cancellation are normal exits.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().Str("port", m.line.Path()).Msg("device setup complete")

	waitErr := m.line.WaitHangup(ctx)

	reason := ReasonHangup
	switch {
	case ctx.Err() != nil:
		reason = ReasonCancelled
		waitErr = nil
	case waitErr != nil:
		reason = ReasonFailed
	}

	m.mu.Lock()
	m.reason = reason
	m.mu.Unlock()

	if reason == ReasonHangup && m.OnHangup != nil {
		m.OnHangup()
	}

	m.log.Info().Str("port", m.line.Path()).Str("reason", reason.String()).Msg("releasing device")

	var restoreErr error
	if err := m.line.SetDiscipline(hciattach.DisciplineTTY); err != nil {
		restoreErr = fmt.Errorf("can't restore line discipline: %w", err)
	}
	if waitErr != nil {
		waitErr = fmt.Errorf("wait for hangup: %w", waitErr)
	}
	return errors.Join(waitErr, restoreErr)
}

// Close closes the line
func (m *Monitor) Close() error {
	if err := m.line.Close(); err != nil {
		return fmt.Errorf("failed to close line: %w", err)
	}
	return nil
}
