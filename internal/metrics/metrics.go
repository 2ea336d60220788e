// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

// Package metrics exports session activity as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

const (
	metricPrefix = "gaai_"

	resultSuccess = "success"

	outcomeHandled = "handled"
)

// Collector is a generic.Observer backed by its own Prometheus registry
type Collector struct {
	registry *prometheus.Registry

	statusCodes *prometheus.CounterVec
	frames      *prometheus.CounterVec
	operations  *prometheus.CounterVec

	stats *Statistics
}

var _ generic.Observer = (*Collector)(nil)

// NewCollector creates and registers the session metrics
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		statusCodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "status_codes_total",
				Help: "Status notifications by category and outcome",
			},
			[]string{"category", "outcome"},
		),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "frames_total",
				Help: "Decoded data frames by record and result",
			},
			[]string{"record", "result"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operations_total",
				Help: "Started operations by family",
			},
			[]string{"family"},
		),
		stats: NewStatistics(),
	}
	c.registry.MustRegister(c.statusCodes, c.frames, c.operations)
	return c
}

// StatusObserved counts a status notification
func (c *Collector) StatusObserved(code nexxtender.StatusCode, anomaly generic.Anomaly) {
	outcome := outcomeHandled
	if anomaly != generic.AnomalyNone {
		outcome = anomaly.String()
	}
	c.statusCodes.WithLabelValues(code.Category().String(), outcome).Inc()
	c.stats.status(anomaly)
}

// FrameDecoded counts a Data payload decode
func (c *Collector) FrameDecoded(record string, err error) {
	result := resultSuccess
	var de *nexxtender.DecodeError
	if errors.As(err, &de) {
		result = de.Kind.String()
	} else if err != nil {
		result = "error"
	}
	c.frames.WithLabelValues(record, result).Inc()
	c.stats.frame(err)
}

// OperationStarted counts a command written by the session
func (c *Collector) OperationStarted(family generic.Family) {
	c.operations.WithLabelValues(family.String()).Inc()
	c.stats.operation()
}

// Registry returns the registry holding the session metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Statistics returns the running totals
func (c *Collector) Statistics() *Statistics {
	return c.stats
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
