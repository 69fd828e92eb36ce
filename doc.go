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

/*
Package hciattach brings up Broadcom BCM43xx Bluetooth controllers wired to
a host UART and hands the line to the Linux hci_uart driver.

A BCM43xx radio powers up at 115200 baud running from ROM. Before the kernel
can use it the host has to reset it, download a patch RAM image, switch both
ends of the link to the operational speed and attach the N_HCI line
discipline. This package implements that sequence over any Link.

Basic Usage:

	import (
	    hciattach "github.com/ZaparooProject/go-hciattach"
	    "github.com/ZaparooProject/go-hciattach/transport/tty"
	)

	cfg := hciattach.DefaultConfig()
	cfg.Speed = 3000000
	cfg.Address = "43:29:B1:55:01:01"

	line, id, err := hciattach.Attach(ctx, "/dev/ttyS1", cfg,
	    hciattach.WithLineFactory(tty.OpenLine),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer line.Close()

	fmt.Printf("%s attached at %d baud\n", id.Name, id.Speed)

Bring-up:

The sequence is reset, read local name, raise the controller speed, load
firmware, return the host to the initial speed, reset again, write the
device address when one is configured, and raise the speed a final time.
The first failing step aborts the sequence with a *StepError naming it.
Sequencer runs the same steps against any Chip, which is how the steps are
tested without hardware.

Links:

  - transport/tty: Linux terminal devices, the only Line that can be attached
  - transport/uart: portable serial ports, used to probe a controller
  - MockLine: a scripted Line for tests

Error Handling:

Errors wrap the sentinels in errors.go and can be classified:

	if hciattach.IsProtocolError(err) {
	    // the controller answered but refused or garbled a command
	}
	if errors.Is(err, hciattach.ErrDeadlineExceeded) {
	    // the bring-up did not finish in time
	}

Thread Safety:

A Controller drives one link from one goroutine. Only Interrupt and Close
may be called concurrently with a blocked exchange.
*/
package hciattach
