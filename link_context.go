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
	"errors"
	"fmt"
	"io"
	"time"
)

// RunWithDeadline runs fn against link and waits for it to finish or for the
// timeout to elapse. A timeout of zero or less applies no deadline beyond ctx.
//
// When the deadline passes or ctx is cancelled, the link is interrupted (or
// closed if it cannot be interrupted) so that fn's blocking I/O returns. The
// call always waits for fn to return, so no goroutine outlives it.
func RunWithDeadline(ctx context.Context, timeout time.Duration, link io.Closer, fn func(ctx context.Context) error) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled before bring-up: %w", ctx.Err())
	default:
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(runCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
	}

	if in, ok := link.(Interrupter); ok {
		in.Interrupt()
	} else {
		_ = link.Close()
	}
	<-done

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrDeadlineExceeded, timeout)
	}
	return fmt.Errorf("bring-up cancelled: %w", runCtx.Err())
}
