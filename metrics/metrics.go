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

// Package metrics exports bring-up measurements to Prometheus
package metrics

import (
	"errors"
	"net/http"
	"time"

	hciattach "github.com/ZaparooProject/go-hciattach"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "hciattach"

// Metrics implements hciattach.Observer
type Metrics struct {
	exchanges       *prometheus.CounterVec
	exchangeSeconds *prometheus.HistogramVec
	stateSeconds    *prometheus.GaugeVec
	stateFailures   *prometheus.CounterVec
	firmwareRecords prometheus.Counter
	firmwareBytes   prometheus.Counter
	attached        prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "total", Help: "Command exchanges by result"},
			[]string{"command", "result"}),
		exchangeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "duration_seconds", Help: "Command exchange latency",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12)},
			[]string{"command"}),
		stateSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "bringup", Name: "step_seconds", Help: "Duration of the last run of each bring-up step"},
			[]string{"step"}),
		stateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bringup", Name: "failures_total", Help: "Bring-up failures by step"},
			[]string{"step", "type"}),
		firmwareRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "firmware", Name: "records_total", Help: "Firmware records sent"}),
		firmwareBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "firmware", Name: "bytes_total", Help: "Firmware payload bytes sent"}),
		attached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "attached", Help: "1 while the line is attached to the kernel driver"}),
	}

	reg.MustRegister(
		m.exchanges,
		m.exchangeSeconds,
		m.stateSeconds,
		m.stateFailures,
		m.firmwareRecords,
		m.firmwareBytes,
		m.attached,
	)
	return m
}

// ObserveExchange counts one command exchange
func (m *Metrics) ObserveExchange(op hciattach.Opcode, elapsed time.Duration, err error) {
	cmd := op.String()
	m.exchangeSeconds.WithLabelValues(cmd).Observe(elapsed.Seconds())
	m.exchanges.WithLabelValues(cmd, result(err)).Inc()
}

// ObserveFirmwareRecord counts one firmware record
func (m *Metrics) ObserveFirmwareRecord(length int) {
	m.firmwareRecords.Inc()
	m.firmwareBytes.Add(float64(length))
}

// ObserveState records a finished bring-up step
func (m *Metrics) ObserveState(state hciattach.State, elapsed time.Duration, err error) {
	m.stateSeconds.WithLabelValues(state.String()).Set(elapsed.Seconds())
	if err != nil {
		m.stateFailures.WithLabelValues(state.String(), hciattach.GetErrorType(err).String()).Inc()
	}
}

// SetAttached reports whether the line is attached
func (m *Metrics) SetAttached(on bool) {
	if on {
		m.attached.Set(1)
		return
	}
	m.attached.Set(0)
}

func result(err error) string {
	var protoErr *hciattach.ProtocolError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, hciattach.ErrCommandFailed):
		return "status"
	case errors.As(err, &protoErr):
		return "protocol"
	default:
		return "io"
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          reg,
	})
}
