// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package capture

import "cryptopan/common/reporter"

type metrics struct {
	packets   reporter.Counter
	dropped   reporter.Counter
	addresses reporter.Counter
}

func (w *Rewriter) initMetrics() {
	w.metrics.packets = w.r.Counter(
		reporter.CounterOpts{
			Name: "packets_total",
			Help: "Number of packets read.",
		},
	)
	w.metrics.dropped = w.r.Counter(
		reporter.CounterOpts{
			Name: "dropped_packets_total",
			Help: "Number of packets dropped because they cannot be anonymized.",
		},
	)
	w.metrics.addresses = w.r.Counter(
		reporter.CounterOpts{
			Name: "addresses_total",
			Help: "Number of anonymized addresses in packets.",
		},
	)
}
