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
	"fmt"
	"os"
	"testing"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// openPTY returns the master side of a pseudo terminal and the slave path
func openPTY(t *testing.T) (*os.File, string) {
	t.Helper()

	fd, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		t.Skipf("pseudo terminals unavailable: %v", err)
	}
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		_ = unix.Close(fd)
		t.Skipf("unlockpt: %v", err)
	}
	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		_ = unix.Close(fd)
		t.Skipf("ptsname: %v", err)
	}

	master := os.NewFile(uintptr(fd), "/dev/ptmx")
	t.Cleanup(func() { _ = master.Close() })
	return master, fmt.Sprintf("/dev/pts/%d", n)
}

func openTestLine(t *testing.T) (*os.File, *Line) {
	t.Helper()
	master, path := openPTY(t)
	line, err := Open(path)
	if err != nil {
		t.Skipf("open %s: %v", path, err)
	}
	t.Cleanup(func() { _ = line.Close() })
	return master, line
}

func TestLineConfigure(t *testing.T) {
	t.Parallel()

	_, line := openTestLine(t)

	require.NoError(t, line.Flush(hciattach.QueueBoth))
	require.NoError(t, line.MakeRaw(false))
	require.NoError(t, line.SetSpeed(115200))
	require.NoError(t, line.Flush(hciattach.QueueInput))
	require.ErrorIs(t, line.SetSpeed(0), hciattach.ErrInvalidSpeed)

	tio, err := unix.IoctlGetTermios(line.fd, unix.TCGETS)
	require.NoError(t, err)
	assert.Zero(t, tio.Lflag&unix.ICANON)
	assert.Equal(t, uint32(unix.CS8), tio.Cflag&unix.CSIZE)

	assert.Equal(t, hciattach.LinkTTY, line.Type())
	assert.NotNil(t, line.File())
}

func TestLineReadWrite(t *testing.T) {
	t.Parallel()

	master, line := openTestLine(t)
	require.NoError(t, line.MakeRaw(false))

	evt := []byte{0x04, 0x0E, 0x04, 0x01, 0x03, 0x0C, 0x00}
	_, err := master.Write(evt)
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := hciattach.ReadEvent(line, buf)
	require.NoError(t, err)
	assert.Equal(t, evt, buf[:n])

	n, err = line.Write([]byte{0x01, 0x03, 0x0C, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestLineInterrupt(t *testing.T) {
	t.Parallel()

	_, line := openTestLine(t)
	require.NoError(t, line.MakeRaw(false))

	errc := make(chan error, 1)
	go func() {
		_, err := line.Read(make([]byte, 1))
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	line.Interrupt()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, hciattach.ErrLinkClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("read was not interrupted")
	}
}

func TestLineWaitHangupCancelled(t *testing.T) {
	t.Parallel()

	_, line := openTestLine(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := line.WaitHangup(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLineWaitHangup(t *testing.T) {
	t.Parallel()

	master, line := openTestLine(t)

	errc := make(chan error, 1)
	go func() {
		errc <- line.WaitHangup(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, master.Close())

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		line.Interrupt()
		t.Fatal("hang-up not reported")
	}
}

func TestLineCloseTwice(t *testing.T) {
	t.Parallel()

	_, path := openPTY(t)
	line, err := Open(path)
	if err != nil {
		t.Skipf("open %s: %v", path, err)
	}
	require.NoError(t, line.Close())
	require.NoError(t, line.Close())
}

func TestOpenMissingDevice(t *testing.T) {
	t.Parallel()

	_, err := Open("/dev/does-not-exist-hci")
	require.ErrorIs(t, err, os.ErrNotExist)
}
