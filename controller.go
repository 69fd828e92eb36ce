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
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
)

// Default settle delays around firmware download
const (
	DefaultModeSettle  = 50 * time.Millisecond
	DefaultReadySettle = 100 * time.Millisecond
)

// DefaultNameCapacity is the size of the controller name buffer including
// its terminator
const DefaultNameCapacity = 40

// Controller drives a Broadcom BCM43xx controller over a Link.
//
// Thread Safety: Controller is NOT thread-safe. The link it wraps is owned
// by a single goroutine for the whole bring-up.
type Controller struct {
	link        Link
	log         types.Logger
	observer    Observer
	progress    ProgressFunc
	sleep       func(time.Duration)
	session     string
	nameCap     int
	modeSettle  time.Duration
	readySettle time.Duration
}

// New creates a controller on the given link
func New(link Link, opts ...Option) (*Controller, error) {
	c := &Controller{
		link:        link,
		log:         discardLogger(),
		observer:    nopObserver{},
		sleep:       time.Sleep,
		session:     uuid.NewString(),
		nameCap:     DefaultNameCapacity,
		modeSettle:  DefaultModeSettle,
		readySettle: DefaultReadySettle,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Link returns the underlying link
func (c *Controller) Link() Link {
	return c.link
}

// Session returns the id used to correlate this controller's log lines
func (c *Controller) Session() string {
	return c.session
}

// SetHostSpeed switches the host side of the link without telling the
// controller
func (c *Controller) SetHostSpeed(baud int) error {
	if err := c.link.SetSpeed(baud); err != nil {
		return NewLinkError("set host speed", "", err)
	}
	c.log.Debug().Str("session", c.session).Int("baud", baud).Msg("host speed changed")
	return nil
}

// NewLogger returns a root logger writing to w. Debug enables trace output.
func NewLogger(w io.Writer, debug bool) types.RootLogger {
	log := logging.New(logging.Zerolog, "hciattach", w)
	if debug {
		log.SetLevel(types.TraceLevel)
	} else {
		log.SetLevel(types.InfoLevel)
	}
	return log
}

func discardLogger() types.Logger {
	return logging.New(logging.Zerolog, "hciattach", io.Discard)
}
