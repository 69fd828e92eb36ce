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
	"sync"
	"time"

	"github.com/loopholelabs/logging/types"
)

// AttachOption configures Attach
type AttachOption func(*attachConfig) error

type attachConfig struct {
	open     LineFactory
	log      types.Logger
	sleep    func(time.Duration)
	ctrlOpts []Option
}

// WithLineFactory sets how the device is opened
func WithLineFactory(open LineFactory) AttachOption {
	return func(ac *attachConfig) error {
		ac.open = open
		return nil
	}
}

// WithControllerOptions passes options to the controller built for the line
func WithControllerOptions(opts ...Option) AttachOption {
	return func(ac *attachConfig) error {
		ac.ctrlOpts = append(ac.ctrlOpts, opts...)
		return nil
	}
}

// WithAttachLogger sets the logger for line configuration steps
func WithAttachLogger(log types.Logger) AttachOption {
	return func(ac *attachConfig) error {
		if log != nil {
			ac.log = log
		}
		return nil
	}
}

// WithBreakSleep replaces the sleep used after a break
func WithBreakSleep(sleep func(time.Duration)) AttachOption {
	return func(ac *attachConfig) error {
		if sleep != nil {
			ac.sleep = sleep
		}
		return nil
	}
}

// Attach opens devicePath, brings up the controller on it and hands the
// line to the kernel Bluetooth driver. On success the returned line must be
// kept open for as long as the controller should stay attached.
//
// cfg.Deadline covers everything from open to the last driver ioctl. Any
// failure closes the line. There is no partial success.
func Attach(ctx context.Context, devicePath string, cfg *Config, opts ...AttachOption) (Line, *Identity, error) {
	ac := &attachConfig{
		log:   discardLogger(),
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		if err := opt(ac); err != nil {
			return nil, nil, err
		}
	}
	if ac.open == nil {
		return nil, nil, ErrNoLineFactory
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	path, err := ResolveDevicePath(devicePath)
	if err != nil {
		return nil, nil, err
	}

	var (
		pending pendingLine
		id      *Identity
		session string
	)
	err = RunWithDeadline(ctx, cfg.Deadline, &pending, func(ctx context.Context) error {
		line, err := ac.open(path)
		if err != nil {
			return NewLinkError("open", path, err)
		}
		pending.set(line)
		ac.log.Debug().Str("port", path).Msg("line opened")

		if err := configureLine(ctx, line, cfg, ac); err != nil {
			return err
		}

		ctrl, err := New(line, append([]Option{WithLogger(ac.log)}, ac.ctrlOpts...)...)
		if err != nil {
			return err
		}
		session = ctrl.Session()

		if id, err = ctrl.Bringup(ctx, cfg); err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		return finalizeLine(ctx, line, cfg)
	})

	line := pending.get()
	if err != nil {
		if line != nil {
			_ = line.Close()
		}
		return nil, nil, err
	}

	ac.log.Info().
		Str("session", session).
		Str("port", path).
		Str("chip", id.Name).
		Int("baud", cfg.Speed).
		Msg("device attached")
	return line, id, nil
}

// pendingLine holds the line while Attach is opening and configuring it,
// so an expired deadline can reach a line that was not yet open when it
// fired
type pendingLine struct {
	line      Line
	mu        sync.Mutex
	cancelled bool
}

func (p *pendingLine) set(line Line) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.line = line
	if p.cancelled {
		interruptLine(line)
	}
}

func (p *pendingLine) get() Line {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line
}

// Interrupt wakes the line if it is open and marks later opens as late
func (p *pendingLine) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = true
	if p.line != nil {
		interruptLine(p.line)
	}
}

// Close interrupts only; Attach closes the line itself once the bring-up
// goroutine has returned
func (p *pendingLine) Close() error {
	p.Interrupt()
	return nil
}

func interruptLine(line Line) {
	if in, ok := line.(Interrupter); ok {
		in.Interrupt()
		return
	}
	_ = line.Close()
}

// configureLine prepares a freshly opened line for the controller's
// power-on settings
func configureLine(ctx context.Context, line Line, cfg *Config, ac *attachConfig) error {
	port := line.Path()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := line.Flush(QueueBoth); err != nil {
		return NewLinkError("flush", port, err)
	}
	if err := line.MakeRaw(cfg.FlowControl); err != nil {
		return NewLinkError("set port settings", port, err)
	}
	if err := line.SetSpeed(cfg.InitSpeed); err != nil {
		return NewLinkError("set initial baud rate", port, err)
	}
	if err := line.Flush(QueueBoth); err != nil {
		return NewLinkError("flush", port, err)
	}

	if cfg.SendBreak {
		if err := line.SendBreak(); err != nil {
			return NewLinkError("send break", port, err)
		}
		ac.sleep(BreakSettle)
	}
	return ctx.Err()
}

// finalizeLine switches to the operational speed and attaches the HCI line
// discipline
func finalizeLine(ctx context.Context, line Line, cfg *Config) error {
	port := line.Path()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := line.Flush(QueueBoth); err != nil {
		return NewLinkError("flush", port, err)
	}
	if err := line.SetSpeed(cfg.Speed); err != nil {
		return NewLinkError("set baud rate", port, err)
	}
	if err := line.SetDiscipline(DisciplineHCI); err != nil {
		return NewLinkError("set line discipline", port, err)
	}
	if flags := cfg.UARTFlags(); flags != 0 {
		if err := line.SetUARTFlags(flags); err != nil {
			return NewLinkError("set device flags", port, err)
		}
	}
	if err := line.SetUARTProto(cfg.Proto); err != nil {
		return NewLinkError("set device", port, err)
	}
	return nil
}
