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

package tty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"golang.org/x/sys/unix"
)

// Line is a serial terminal opened for exclusive use by the bring-up.
//
// Blocking reads wait in poll(2) on the terminal and on an internal pipe, so
// Interrupt can wake them from another goroutine.
type Line struct {
	file      *os.File
	path      string
	fd        int
	wakeR     int
	wakeW     int
	mu        sync.Mutex
	interrupt sync.Once
	closed    bool
}

// Open opens path read-write without making it the controlling terminal and
// claims it exclusively
func Open(path string) (*Line, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	line, err := newLine(os.NewFile(uintptr(fd), path), path)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return line, nil
}

// OpenLine is Open as a hciattach.LineFactory
func OpenLine(path string) (hciattach.Line, error) {
	return Open(path)
}

// FromFile wraps a terminal inherited from another process. The line
// takes ownership of f.
func FromFile(f *os.File, path string) (*Line, error) {
	return newLine(f, path)
}

func newLine(f *os.File, path string) (*Line, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, fmt.Errorf("failed to create wake pipe: %w", err)
	}
	return &Line{
		file:  f,
		path:  path,
		fd:    int(f.Fd()),
		wakeR: p[0],
		wakeW: p[1],
	}, nil
}

// File returns the terminal as an *os.File, for handing to a child process
func (l *Line) File() *os.File {
	return l.file
}

// Path returns the device path
func (l *Line) Path() string {
	return l.path
}

// Type returns hciattach.LinkTTY
func (*Line) Type() hciattach.LinkType {
	return hciattach.LinkTTY
}

// wait blocks until the terminal has one of events pending or the line is
// interrupted
func (l *Line) wait(events int16) (int16, error) {
	fds := []unix.PollFd{
		{Fd: int32(l.fd), Events: events},
		{Fd: int32(l.wakeR), Events: unix.POLLIN},
	}
	for {
		_, err := unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("poll: %w", err)
		}
		if fds[1].Revents != 0 {
			return 0, hciattach.ErrLinkClosed
		}
		if fds[0].Revents != 0 {
			return fds[0].Revents, nil
		}
	}
}

// Read blocks until data arrives. It returns io.EOF on hang-up and
// hciattach.ErrLinkClosed once the line is interrupted.
func (l *Line) Read(p []byte) (int, error) {
	revents, err := l.wait(unix.POLLIN)
	if err != nil {
		return 0, err
	}
	if revents&unix.POLLIN == 0 {
		return 0, io.EOF
	}

	for {
		n, err := unix.Read(l.fd, p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write issues a single write(2)
func (l *Line) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(l.fd, p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// Flush discards queued data
func (l *Line) Flush(q hciattach.Queue) error {
	sel := unix.TCIOFLUSH
	switch q {
	case hciattach.QueueInput:
		sel = unix.TCIFLUSH
	case hciattach.QueueOutput:
		sel = unix.TCOFLUSH
	case hciattach.QueueBoth:
	}
	if err := unix.IoctlSetInt(l.fd, unix.TCFLSH, sel); err != nil {
		return fmt.Errorf("tcflush %s: %w", q, err)
	}
	return nil
}

// MakeRaw applies cfmakeraw settings, ignores modem control lines and sets
// RTS/CTS flow control
func (l *Line) MakeRaw(flow bool) error {
	t, err := unix.IoctlGetTermios(l.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("tcgetattr: %w", err)
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8 | unix.CLOCAL
	if flow {
		t.Cflag |= unix.CRTSCTS
	} else {
		t.Cflag &^= unix.CRTSCTS
	}
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(l.fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("tcsetattr: %w", err)
	}
	return nil
}

// SetSpeed sets both directions to baud. Any rate the driver supports is
// accepted, not only the standard Bxxx values.
func (l *Line) SetSpeed(baud int) error {
	if baud <= 0 {
		return fmt.Errorf("%w: %d", hciattach.ErrInvalidSpeed, baud)
	}

	t, err := unix.IoctlGetTermios(l.fd, unix.TCGETS2)
	if err != nil {
		return fmt.Errorf("tcgetattr: %w", err)
	}

	t.Cflag &^= unix.CBAUD
	t.Cflag |= unix.BOTHER
	t.Ispeed = uint32(baud)
	t.Ospeed = uint32(baud)

	if err := unix.IoctlSetTermios(l.fd, unix.TCSETS2, t); err != nil {
		return fmt.Errorf("failed to set %d baud: %w", baud, err)
	}
	return nil
}

// SendBreak asserts a break for the driver's default duration
func (l *Line) SendBreak() error {
	if err := unix.IoctlSetInt(l.fd, unix.TCSBRK, 0); err != nil {
		return fmt.Errorf("tcsendbreak: %w", err)
	}
	return nil
}

// SetDiscipline attaches line discipline ldisc
func (l *Line) SetDiscipline(ldisc int) error {
	if err := unix.IoctlSetPointerInt(l.fd, unix.TIOCSETD, ldisc); err != nil {
		return fmt.Errorf("TIOCSETD %d: %w", ldisc, err)
	}
	return nil
}

// SetUARTFlags sets the hci_uart device flags
func (l *Line) SetUARTFlags(flags uint) error {
	if err := unix.IoctlSetInt(l.fd, hciUARTSetFlags, int(flags)); err != nil {
		return fmt.Errorf("HCIUARTSETFLAGS 0x%X: %w", flags, err)
	}
	return nil
}

// SetUARTProto selects the hci_uart protocol
func (l *Line) SetUARTProto(proto int) error {
	if err := unix.IoctlSetInt(l.fd, hciUARTSetProto, proto); err != nil {
		return fmt.Errorf("HCIUARTSETPROTO %d: %w", proto, err)
	}
	return nil
}

// WaitHangup blocks until the terminal reports hang-up or an error. When
// ctx is done the line is interrupted and ctx's error returned.
func (l *Line) WaitHangup(ctx context.Context) error {
	stop := context.AfterFunc(ctx, l.Interrupt)
	defer stop()

	// POLLHUP and POLLERR are always reported
	_, err := l.wait(0)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Interrupt wakes every blocked and future Read or WaitHangup
func (l *Line) Interrupt() {
	l.interrupt.Do(func() {
		_, _ = unix.Write(l.wakeW, []byte{0})
	})
}

// Close releases the terminal. Blocked calls are interrupted first.
func (l *Line) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	l.Interrupt()
	err := l.file.Close()
	_ = unix.Close(l.wakeR)
	_ = unix.Close(l.wakeW)
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", l.path, err)
	}
	return nil
}
