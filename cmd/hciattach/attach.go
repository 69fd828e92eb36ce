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
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/ZaparooProject/go-hciattach/config"
	"github.com/ZaparooProject/go-hciattach/metrics"
	"github.com/ZaparooProject/go-hciattach/monitor"
	"github.com/ZaparooProject/go-hciattach/power"
	"github.com/ZaparooProject/go-hciattach/transport/tty"
	"github.com/loopholelabs/logging/types"
	"github.com/spf13/cobra"
)

func runAttach(cmd *cobra.Command, args []string) error {
	p, err := buildPlan(args, cmd.Flags().Changed)
	if err != nil {
		return err
	}
	log := hciattach.NewLogger(os.Stderr, p.debug)

	ctx, stop := signalContext()
	defer stop()

	ctrlOpts := []hciattach.Option{hciattach.WithLogger(log)}
	var m *metrics.Metrics
	if p.metrics != "" {
		var srv *http.Server
		m, srv = serveMetrics(log, p.metrics)
		defer func() { _ = srv.Close() }()
		ctrlOpts = append(ctrlOpts, hciattach.WithObserver(m))
	}
	if p.debug {
		ctrlOpts = append(ctrlOpts, hciattach.WithProgress(func(records, bytes int) {
			log.Trace().Int("records", records).Int("bytes", bytes).Msg("firmware progress")
		}))
	}

	if p.power != nil && p.power.GPIO != "" {
		if err := cyclePower(ctx, p.power, log); err != nil {
			return err
		}
	}

	line, id, err := hciattach.Attach(ctx, p.tty, p.cfg,
		hciattach.WithLineFactory(tty.OpenLine),
		hciattach.WithAttachLogger(log),
		hciattach.WithControllerOptions(ctrlOpts...),
	)
	if err != nil {
		return err
	}

	if noDetach {
		return hold(ctx, line, log, m)
	}
	return detach(line, id, p)
}

// signalContext is cancelled by SIGINT or SIGTERM. SIGHUP is ignored so a
// closing session does not release the device.
func signalContext() (context.Context, context.CancelFunc) {
	signal.Ignore(syscall.SIGHUP)
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// hold keeps line attached until it hangs up or ctx is done, then hands
// it back to the terminal driver and closes it
func hold(ctx context.Context, line hciattach.Line, log types.Logger, m *metrics.Metrics) error {
	if m != nil {
		m.SetAttached(true)
		defer m.SetAttached(false)
	}

	mon := monitor.New(line, log)
	mon.OnHangup = func() {
		log.Warn().Str("port", line.Path()).Msg("line hung up")
	}
	err := mon.Run(ctx)
	return errors.Join(err, mon.Close())
}

func cyclePower(ctx context.Context, ps *config.PowerSchema, log types.Logger) error {
	opts, err := ps.Options()
	if err != nil {
		return err
	}
	enable, err := power.Open(ps.GPIO, append(opts, power.WithLogger(log))...)
	if err != nil {
		return err
	}
	return enable.Cycle(ctx)
}
