// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package reporter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Aliases so that components do not have to import Prometheus.
type (
	// CounterOpts describes a counter.
	CounterOpts = prometheus.CounterOpts
	// GaugeOpts describes a gauge.
	GaugeOpts = prometheus.GaugeOpts
	// HistogramOpts describes an histogram.
	HistogramOpts = prometheus.HistogramOpts
	// Counter is a monotonic counter.
	Counter = prometheus.Counter
	// CounterVec is a set of counters sharing the same description.
	CounterVec = prometheus.CounterVec
	// Gauge is a value going up and down.
	Gauge = prometheus.Gauge
	// GaugeVec is a set of gauges sharing the same description.
	GaugeVec = prometheus.GaugeVec
	// GaugeFunc is a gauge whose value is computed on collection.
	GaugeFunc = prometheus.GaugeFunc
	// HistogramVec is a set of histograms sharing the same description.
	HistogramVec = prometheus.HistogramVec
)

// Counter registers a new counter prefixed by the calling module.
func (r *Reporter) Counter(opts CounterOpts) Counter {
	return r.metrics.Factory(1).NewCounter(opts)
}

// CounterVec registers a new counter vector prefixed by the calling module.
func (r *Reporter) CounterVec(opts CounterOpts, labelNames []string) *CounterVec {
	return r.metrics.Factory(1).NewCounterVec(opts, labelNames)
}

// Gauge registers a new gauge prefixed by the calling module.
func (r *Reporter) Gauge(opts GaugeOpts) Gauge {
	return r.metrics.Factory(1).NewGauge(opts)
}

// GaugeVec registers a new gauge vector prefixed by the calling module.
func (r *Reporter) GaugeVec(opts GaugeOpts, labelNames []string) *GaugeVec {
	return r.metrics.Factory(1).NewGaugeVec(opts, labelNames)
}

// GaugeFunc registers a new gauge using the provided function to get its value.
func (r *Reporter) GaugeFunc(opts GaugeOpts, function func() float64) GaugeFunc {
	return r.metrics.Factory(1).NewGaugeFunc(opts, function)
}

// HistogramVec registers a new histogram vector prefixed by the calling module.
func (r *Reporter) HistogramVec(opts HistogramOpts, labelNames []string) *HistogramVec {
	return r.metrics.Factory(1).NewHistogramVec(opts, labelNames)
}

// MetricsHTTPHandler returns the HTTP handler exposing metrics.
func (r *Reporter) MetricsHTTPHandler() http.Handler {
	return r.metrics.HTTPHandler()
}
