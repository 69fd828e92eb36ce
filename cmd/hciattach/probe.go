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
	"os"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/ZaparooProject/go-hciattach/transport/uart"
	"github.com/spf13/cobra"
)

var (
	probeSpeed   int
	probeTimeout time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe <tty>",
	Short: "Reset a controller and print its local name",
	Long: `Opens the port at the given speed, resets the controller and reads its
local name. No firmware is loaded and the line discipline is not changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().IntVar(&probeSpeed, "speed", hciattach.DefaultInitSpeed, "Baud rate to probe at")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 3*time.Second, "Probe timeout")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	path, err := hciattach.ResolveDevicePath(args[0])
	if err != nil {
		return err
	}
	log := hciattach.NewLogger(os.Stderr, debug)

	ctx, stop := signalContext()
	defer stop()

	name, err := uart.Probe(ctx, path, probeSpeed, probeTimeout, hciattach.WithLogger(log))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, name)
	return nil
}
