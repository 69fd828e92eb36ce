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
	"io"
	"text/tabwriter"

	"github.com/ZaparooProject/go-hciattach/detection"
	"github.com/spf13/cobra"
)

var (
	ignorePaths []string
	onboardOnly bool
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports a controller may be attached to",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

func init() {
	portsCmd.Flags().StringSliceVar(&ignorePaths, "ignore", nil, "Port paths to skip")
	portsCmd.Flags().BoolVar(&onboardOnly, "onboard", false, "Only list SoC UARTs")
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, _ []string) error {
	opts := detection.DefaultOptions()
	opts.IgnorePaths = ignorePaths
	opts.OnboardOnly = onboardOnly

	ports, err := detection.ListPorts(opts)
	if err != nil {
		return err
	}
	return writePorts(cmd.OutOrStdout(), ports)
}

func writePorts(w io.Writer, ports []detection.Port) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tKIND\tVID:PID\tPRODUCT\tSERIAL")
	for _, p := range ports {
		kind := "other"
		switch {
		case p.Onboard:
			kind = "onboard"
		case p.USB:
			kind = "usb"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Path, kind, dash(p.VIDPID), dash(p.Product), dash(p.Serial))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
