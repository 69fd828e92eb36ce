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

//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/ZaparooProject/go-hciattach/transport/tty"
)

// detach hands the attached line to a new session running the hold
// command and releases this process's copy of the descriptor
func detach(line hciattach.Line, id *hciattach.Identity, p *plan) error {
	tl, ok := line.(*tty.Line)
	if !ok {
		return fmt.Errorf("detach %s: unsupported line type %s", line.Path(), line.Type())
	}

	exe, err := os.Executable()
	if err != nil {
		return errors.Join(fmt.Errorf("detach: %w", err), release(line))
	}

	cmd := exec.Command(exe, holdArgs(line.Path(), id.Session, p)...)
	cmd.ExtraFiles = []*os.File{tl.File()}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return errors.Join(fmt.Errorf("detach: %w", err), release(line))
	}

	if printPID {
		_, _ = fmt.Fprintf(os.Stdout, "%d\n", cmd.Process.Pid)
	}
	_ = cmd.Process.Release()
	return line.Close()
}

// release returns the line to the terminal driver when no holder took it
func release(line hciattach.Line) error {
	err := line.SetDiscipline(hciattach.DisciplineTTY)
	return errors.Join(err, line.Close())
}
