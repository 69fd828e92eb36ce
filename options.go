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
	"fmt"
	"time"

	"github.com/loopholelabs/logging/types"
)

// Option is a functional option for configuring a Controller
type Option func(*Controller) error

// WithLogger sets the logger used for exchange and step tracing
func WithLogger(log types.Logger) Option {
	return func(c *Controller) error {
		if log != nil {
			c.log = log
		}
		return nil
	}
}

// WithObserver sets the metrics observer
func WithObserver(obs Observer) Option {
	return func(c *Controller) error {
		if obs != nil {
			c.observer = obs
		}
		return nil
	}
}

// WithProgress sets a callback invoked after each firmware record is sent
func WithProgress(fn ProgressFunc) Option {
	return func(c *Controller) error {
		c.progress = fn
		return nil
	}
}

// WithSession overrides the generated session id
func WithSession(id string) Option {
	return func(c *Controller) error {
		if id != "" {
			c.session = id
		}
		return nil
	}
}

// WithNameCapacity sets the controller name buffer size including the terminator
func WithNameCapacity(size int) Option {
	return func(c *Controller) error {
		if size < 2 {
			return fmt.Errorf("%w: name capacity %d", ErrBufferTooSmall, size)
		}
		c.nameCap = size
		return nil
	}
}

// WithSettleDelays sets the waits after entering download mode and after
// the last firmware record
func WithSettleDelays(mode, ready time.Duration) Option {
	return func(c *Controller) error {
		c.modeSettle = mode
		c.readySettle = ready
		return nil
	}
}

// WithSleep replaces the function used for settle delays
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Controller) error {
		if sleep != nil {
			c.sleep = sleep
		}
		return nil
	}
}
