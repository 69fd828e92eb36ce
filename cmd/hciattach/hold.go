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

package main

import (
	"fmt"
	"net/http"
	"os"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/ZaparooProject/go-hciattach/metrics"
	"github.com/ZaparooProject/go-hciattach/transport/tty"
	"github.com/spf13/cobra"
)

// holdFD is the descriptor the attached line is inherited on
const holdFD = 3

var holdSession string

var holdCmd = &cobra.Command{
	Use:    "hold <tty>",
	Short:  "Hold an attached line inherited on descriptor 3",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runHold,
}

func init() {
	holdCmd.Flags().StringVar(&holdSession, "session", "", "Bring-up session id")
	rootCmd.AddCommand(holdCmd)
}

func runHold(_ *cobra.Command, args []string) error {
	log := hciattach.NewLogger(os.Stderr, debug)

	line, err := tty.FromFile(os.NewFile(holdFD, args[0]), args[0])
	if err != nil {
		return fmt.Errorf("hold %s: %w", args[0], err)
	}

	ctx, stop := signalContext()
	defer stop()

	var m *metrics.Metrics
	if metricsAddr != "" {
		var srv *http.Server
		m, srv = serveMetrics(log, metricsAddr)
		defer func() { _ = srv.Close() }()
	}

	log.Info().Str("session", holdSession).Str("port", args[0]).Int("pid", os.Getpid()).Msg("holding line")
	return hold(ctx, line, log, m)
}

// holdArgs builds the command line of the detached holder
func holdArgs(path, session string, p *plan) []string {
	args := []string{"hold", path, "--session", session}
	if p.metrics != "" {
		args = append(args, "--metrics", p.metrics)
	}
	if p.debug {
		args = append(args, "--debug")
	}
	return args
}
