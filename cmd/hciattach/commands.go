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
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hciattach [flags] <tty> [speed] [flow|noflow] [sleep|nosleep] [bdaddr]",
	Short: "Attach a BCM43xx UART Bluetooth controller to the kernel HCI driver",
	Long: `Loads patch RAM firmware into a BCM43xx controller over its UART,
switches the line to the operational speed and hands it to the kernel
hci_uart driver. The line is held until it hangs up or a signal arrives.`,
	Args:          cobra.RangeArgs(1, 5),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runAttach,
}

var (
	sendBreak   bool
	noDetach    bool
	printPID    bool
	rawDevice   bool
	ampDevice   bool
	timeout     int
	initSpeed   int
	configFile  string
	firmware    string
	firmwareDir string
	powerGPIO   string
	metricsAddr string
	debug       bool
)

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&sendBreak, "break", "b", false, "Send a break before bring-up")
	flags.BoolVarP(&noDetach, "nodetach", "n", false, "Stay in the foreground")
	flags.BoolVarP(&printPID, "pid", "p", false, "Print the pid of the detached process")
	flags.BoolVarP(&rawDevice, "raw", "r", false, "Expose a raw HCI device")
	flags.BoolVar(&ampDevice, "amp", false, "Create an AMP controller")
	flags.IntVarP(&timeout, "timeout", "t", 10, "Bring-up timeout in seconds, 0 disables it")
	flags.IntVarP(&initSpeed, "initial-speed", "s", 0, "Controller power-on baud rate")
	flags.StringVar(&configFile, "config", "", "HCL configuration file")
	flags.StringVar(&firmware, "firmware", "", "Patch RAM firmware image")
	flags.StringVar(&firmwareDir, "firmware-dir", "", "Directory searched for <chip name>.hcd")
	flags.StringVar(&powerGPIO, "power-gpio", "", "GPIO pin that powers the controller")

	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics", "", "Serve prometheus metrics on this address")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable trace logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
