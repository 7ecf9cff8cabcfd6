// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package anonymizer

import "cryptopan/common/reporter"

type metrics struct {
	anonymized   *reporter.CounterVec
	parseErrors  reporter.Counter
	passthrough  reporter.Counter
	cacheHits    reporter.Counter
	cacheMisses  reporter.Counter
	cacheFull    reporter.Counter
	cacheExpired reporter.Counter
}

func (c *Component) initMetrics() {
	c.metrics.anonymized = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "anonymized_total",
			Help: "Number of anonymized addresses and prefixes.",
		},
		[]string{"family"},
	)
	c.metrics.parseErrors = c.r.Counter(
		reporter.CounterOpts{
			Name: "parse_errors_total",
			Help: "Number of inputs which are neither an address nor a prefix.",
		},
	)
	c.metrics.passthrough = c.r.Counter(
		reporter.CounterOpts{
			Name: "passthrough_total",
			Help: "Number of addresses and prefixes left untouched.",
		},
	)
	if c.cache == nil {
		return
	}
	c.metrics.cacheHits = c.r.Counter(
		reporter.CounterOpts{
			Name: "cache_hits_total",
			Help: "Number of addresses found in cache.",
		},
	)
	c.metrics.cacheMisses = c.r.Counter(
		reporter.CounterOpts{
			Name: "cache_misses_total",
			Help: "Number of addresses not found in cache.",
		},
	)
	c.metrics.cacheFull = c.r.Counter(
		reporter.CounterOpts{
			Name: "cache_full_total",
			Help: "Number of addresses not cached because the cache is full.",
		},
	)
	c.metrics.cacheExpired = c.r.Counter(
		reporter.CounterOpts{
			Name: "cache_expired_total",
			Help: "Number of addresses expired from cache.",
		},
	)
	c.r.GaugeFunc(
		reporter.GaugeOpts{
			Name: "cache_size",
			Help: "Number of addresses in cache.",
		},
		func() float64 { return float64(c.cache.Size()) },
	)
}
