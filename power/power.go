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

// Package power drives the enable line of a UART Bluetooth radio, such as
// BT_REG_ON on AP6212 modules, so the controller starts from power-on reset
package power

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Default timings for a power cycle
const (
	DefaultOffTime = 20 * time.Millisecond
	DefaultSettle  = 100 * time.Millisecond
)

// ErrPinNotFound is returned when the named GPIO does not exist
var ErrPinNotFound = errors.New("gpio not found")

// Pin is the output the enable line is driven through
type Pin interface {
	Out(l gpio.Level) error
	Name() string
}

// Enable controls a radio enable line
type Enable struct {
	pin       Pin
	log       types.Logger
	wait      func(ctx context.Context, d time.Duration) error
	offTime   time.Duration
	settle    time.Duration
	activeLow bool
}

// Option configures an Enable
type Option func(*Enable)

// WithActiveLow inverts the line
func WithActiveLow() Option {
	return func(e *Enable) {
		e.activeLow = true
	}
}

// WithTimings sets how long the line is held off and how long the radio is
// given to boot
func WithTimings(off, settle time.Duration) Option {
	return func(e *Enable) {
		e.offTime = off
		e.settle = settle
	}
}

// WithLogger sets the logger
func WithLogger(log types.Logger) Option {
	return func(e *Enable) {
		if log != nil {
			e.log = log
		}
	}
}

// WithWait replaces the delay function
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Enable) {
		if wait != nil {
			e.wait = wait
		}
	}
}

// New wraps pin
func New(pin Pin, opts ...Option) *Enable {
	e := &Enable{
		pin:     pin,
		log:     logging.New(logging.Zerolog, "power", io.Discard),
		wait:    sleepContext,
		offTime: DefaultOffTime,
		settle:  DefaultSettle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open initializes the host drivers and looks up the GPIO by name, e.g.
// "GPIO18" or a board header name
func Open(name string, opts ...Option) (*Enable, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}
	return New(pin, opts...), nil
}

func (e *Enable) level(on bool) gpio.Level {
	if e.activeLow {
		return gpio.Level(!on)
	}
	return gpio.Level(on)
}

// Off drives the line to its inactive level
func (e *Enable) Off() error {
	if err := e.pin.Out(e.level(false)); err != nil {
		return fmt.Errorf("failed to switch %s off: %w", e.pin.Name(), err)
	}
	return nil
}

// On drives the line to its active level
func (e *Enable) On() error {
	if err := e.pin.Out(e.level(true)); err != nil {
		return fmt.Errorf("failed to switch %s on: %w", e.pin.Name(), err)
	}
	return nil
}

// Cycle turns the radio off and on again and waits for it to boot
func (e *Enable) Cycle(ctx context.Context) error {
	e.log.Debug().Str("pin", e.pin.Name()).Msg("power cycle radio")

	if err := e.Off(); err != nil {
		return err
	}
	if err := e.wait(ctx, e.offTime); err != nil {
		return err
	}
	if err := e.On(); err != nil {
		return err
	}
	return e.wait(ctx, e.settle)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
