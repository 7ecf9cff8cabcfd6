// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package anonymizer

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

func family(addr netip.Addr) string {
	if addr.Is4() {
		return "ipv4"
	}
	return "ipv6"
}

// AnonymizeAddr returns the anonymized version of the provided address. The
// address family is kept. An invalid address or an address from a passthrough
// subnet is returned unmodified.
func (c *Component) AnonymizeAddr(addr netip.Addr) netip.Addr {
	if !addr.IsValid() {
		return addr
	}
	if c.passthrough.Contains(addr) {
		c.metrics.passthrough.Inc()
		return addr
	}
	var now time.Time
	if c.cache != nil {
		now = c.d.Clock.Now()
		if result, ok := c.cache.Get(now, addr); ok {
			c.metrics.cacheHits.Inc()
			return result
		}
		c.metrics.cacheMisses.Inc()
	}
	result := c.anonymizeAddr(addr)
	c.metrics.anonymized.WithLabelValues(family(addr)).Inc()
	if c.cache != nil && !c.cache.Put(now, addr, result) {
		c.metrics.cacheFull.Inc()
	}
	return result
}

func (c *Component) anonymizeAddr(addr netip.Addr) netip.Addr {
	if c.config.Mode == ModeAggregate {
		bits := c.config.Aggregate.IPv6Prefix
		if addr.Is4() {
			bits = c.config.Aggregate.IPv4Prefix
		}
		prefix, _ := addr.Prefix(bits)
		return prefix.Addr().WithZone(addr.Zone())
	}
	result, _ := c.scrambler.ScrambleAddr(addr)
	return result
}

// AnonymizePrefix returns the anonymized version of the provided prefix. With
// Crypto-PAn, this is the common prefix of the anonymized addresses it
// contains. When aggregating, the prefix length is capped to the configured
// one. An invalid prefix or a prefix inside a passthrough subnet is returned
// unmodified.
func (c *Component) AnonymizePrefix(prefix netip.Prefix) netip.Prefix {
	if !prefix.IsValid() {
		return prefix
	}
	if c.passthrough.ContainsPrefix(prefix) {
		c.metrics.passthrough.Inc()
		return prefix
	}
	c.metrics.anonymized.WithLabelValues(family(prefix.Addr())).Inc()
	if c.config.Mode == ModeAggregate {
		bits := c.config.Aggregate.IPv6Prefix
		if prefix.Addr().Is4() {
			bits = c.config.Aggregate.IPv4Prefix
		}
		result, _ := prefix.Addr().Prefix(min(bits, prefix.Bits()))
		return result
	}
	result, _ := c.scrambler.ScramblePrefix(prefix)
	return result
}

// AnonymizeString parses an address or a prefix (when it contains a slash),
// anonymizes it and returns its textual representation.
func (c *Component) AnonymizeString(input string) (string, error) {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "/") {
		prefix, err := netip.ParsePrefix(input)
		if err != nil {
			c.metrics.parseErrors.Inc()
			return "", fmt.Errorf("cannot parse prefix: %w", err)
		}
		return c.AnonymizePrefix(prefix).String(), nil
	}
	addr, err := netip.ParseAddr(input)
	if err != nil {
		c.metrics.parseErrors.Inc()
		return "", fmt.Errorf("cannot parse address: %w", err)
	}
	return c.AnonymizeAddr(addr).String(), nil
}
