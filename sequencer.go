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
	"time"

	"github.com/loopholelabs/logging/types"
)

// State is a step of the bring-up sequence. States only move forward.
type State int

const (
	StateReset1 State = iota
	StateIdentify
	StateSetSpeedHigh
	StateLoadFirmware
	StateRestoreHostSpeed
	StateReset2
	StateSetAddress
	StateSetSpeedFinal
	StateDone
)

var stateNames = [...]string{
	StateReset1:           "reset",
	StateIdentify:         "identify",
	StateSetSpeedHigh:     "set speed",
	StateLoadFirmware:     "load firmware",
	StateRestoreHostSpeed: "restore host speed",
	StateReset2:           "reset after firmware",
	StateSetAddress:       "set address",
	StateSetSpeedFinal:    "set final speed",
	StateDone:             "done",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Chip is the set of controller operations the bring-up sequence drives
type Chip interface {
	Reset() error
	ReadLocalName() (string, error)
	SetSpeed(baud int) error
	LoadFirmware(path string) error
	SetAddress(addr BDAddr) error
	SetHostSpeed(baud int) error
}

// Identity describes a controller after a successful bring-up
type Identity struct {
	Name     string
	Address  string
	Firmware string
	Session  string
	Speed    int
	Elapsed  time.Duration
}

// Sequencer runs the bring-up state machine against a Chip. There are no
// retries: the first failing step aborts the sequence.
type Sequencer struct {
	chip     Chip
	cfg      *Config
	log      types.Logger
	observer Observer
	session  string
	state    State
}

// NewSequencer creates a sequencer for chip with the given configuration
func NewSequencer(chip Chip, cfg *Config) *Sequencer {
	return &Sequencer{
		chip:     chip,
		cfg:      cfg,
		log:      discardLogger(),
		observer: nopObserver{},
		state:    StateReset1,
	}
}

// Bringup runs the full sequence on the controller
func (c *Controller) Bringup(ctx context.Context, cfg *Config) (*Identity, error) {
	s := NewSequencer(c, cfg)
	s.log = c.log
	s.observer = c.observer
	s.session = c.session
	return s.Run(ctx)
}

// State returns the state the sequencer is in, or last failed in
func (s *Sequencer) State() State {
	return s.state
}

type step struct {
	run   func() error
	state State
}

// Run executes the sequence. The context is checked between steps.
func (s *Sequencer) Run(ctx context.Context) (*Identity, error) {
	start := time.Now()
	id := &Identity{
		Session: s.session,
		Speed:   s.cfg.Speed,
	}

	steps := []step{
		{state: StateReset1, run: s.chip.Reset},
		{state: StateIdentify, run: func() error {
			name, err := s.chip.ReadLocalName()
			if err != nil {
				return err
			}
			id.Name = name
			s.log.Info().Str("session", s.session).Str("chip", name).Msg("chip name")
			return nil
		}},
		{state: StateSetSpeedHigh, run: func() error {
			return s.chip.SetSpeed(s.cfg.Speed)
		}},
		{state: StateLoadFirmware, run: func() error {
			id.Firmware = s.firmwarePath(id.Name)
			return s.chip.LoadFirmware(id.Firmware)
		}},
		// The controller falls back to its power-on speed once the new
		// firmware starts, so only the host side changes here.
		{state: StateRestoreHostSpeed, run: func() error {
			return s.chip.SetHostSpeed(s.cfg.InitSpeed)
		}},
		{state: StateReset2, run: s.chip.Reset},
	}

	if s.cfg.Address != "" {
		steps = append(steps, step{state: StateSetAddress, run: func() error {
			addr, err := ParseBDAddr(s.cfg.Address)
			if err != nil {
				return err
			}
			if err := s.chip.SetAddress(addr); err != nil {
				return err
			}
			id.Address = addr.String()
			return nil
		}})
	}

	steps = append(steps, step{state: StateSetSpeedFinal, run: func() error {
		return s.chip.SetSpeed(s.cfg.Speed)
	}})

	for _, st := range steps {
		s.state = st.state
		if err := ctx.Err(); err != nil {
			return nil, &StepError{State: st.state, Err: err}
		}

		stepStart := time.Now()
		err := st.run()
		s.observer.ObserveState(st.state, time.Since(stepStart), err)
		if err != nil {
			s.log.Error().Str("session", s.session).Str("step", st.state.String()).Err(err).Msg("bring-up failed")
			return nil, &StepError{State: st.state, Err: err}
		}
		s.log.Debug().Str("session", s.session).Str("step", st.state.String()).Msg("step complete")
	}

	s.state = StateDone
	id.Elapsed = time.Since(start)
	return id, nil
}

// firmwarePath picks the image for the named chip. A match in FirmwareDir
// wins over the configured path.
func (s *Sequencer) firmwarePath(chipName string) string {
	if s.cfg.FirmwareDir != "" {
		path, err := LocateFirmware(s.cfg.FirmwareDir, chipName)
		if err == nil {
			return path
		}
		s.log.Debug().Str("session", s.session).Str("dir", s.cfg.FirmwareDir).Err(err).Msg("firmware lookup failed")
	}
	if s.cfg.Firmware != "" {
		return s.cfg.Firmware
	}
	return DefaultFirmwarePath
}
