// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package anonymizer anonymizes IP addresses and prefixes, either with
// Crypto-PAn or by aggregating them. Anonymized addresses are kept in a cache.
package anonymizer

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"gopkg.in/tomb.v2"

	"cryptopan/common/daemon"
	"cryptopan/common/helpers"
	"cryptopan/common/helpers/cache"
	"cryptopan/common/httpserver"
	"cryptopan/common/reporter"
	"cryptopan/scrambler"
)

// Component represents the anonymizer component.
type Component struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration

	scrambler     *scrambler.Scrambler
	cache         *cache.Cache[netip.Addr, netip.Addr]
	passthrough   *helpers.SubnetSet
	healthy       chan reporter.ChannelHealthcheckFunc
	metrics       metrics
	healthMessage string
}

// Dependencies define the dependencies of the anonymizer component.
type Dependencies struct {
	Daemon daemon.Component
	HTTP   *httpserver.Component
	Clock  clock.Clock
}

// New creates a new anonymizer component.
func New(r *reporter.Reporter, configuration Configuration, dependencies Dependencies) (*Component, error) {
	if dependencies.Clock == nil {
		dependencies.Clock = clock.New()
	}
	c := Component{
		r:       r,
		d:       &dependencies,
		config:  configuration,
		healthy: make(chan reporter.ChannelHealthcheckFunc),
	}
	switch configuration.Mode {
	case ModeCryptoPAn:
		backend, ok := scrambler.LookupBackend(configuration.Cipher)
		if !ok {
			return nil, fmt.Errorf("unknown cipher %q (available: %s)",
				configuration.Cipher, strings.Join(scrambler.Backends(), ", "))
		}
		s, err := scrambler.NewWithBackend(configuration.Key, backend)
		if err != nil {
			return nil, fmt.Errorf("unable to initialize scrambler: %w", err)
		}
		c.scrambler = s
		c.healthMessage = fmt.Sprintf("cryptopan mode with %s", configuration.Cipher)
	case ModeAggregate:
		if v4, v6 := configuration.Aggregate.IPv4Prefix, configuration.Aggregate.IPv6Prefix; v4 < 0 || v4 > 32 || v6 < 0 || v6 > 128 {
			return nil, fmt.Errorf("invalid aggregation prefix lengths /%d and /%d", v4, v6)
		}
		c.healthMessage = fmt.Sprintf("aggregate mode to /%d and /%d",
			configuration.Aggregate.IPv4Prefix, configuration.Aggregate.IPv6Prefix)
	default:
		return nil, fmt.Errorf("unknown mode %d", configuration.Mode)
	}
	if len(configuration.Passthrough) > 0 {
		c.passthrough = helpers.NewSubnetSet(configuration.Passthrough)
	}
	if configuration.CacheDuration > 0 {
		c.cache = cache.New[netip.Addr, netip.Addr](configuration.CacheSize)
	}
	c.d.Daemon.Track(&c.t, "anonymizer")
	c.initMetrics()
	if c.d.HTTP != nil {
		c.initHTTP()
	}
	return &c, nil
}

// Start starts the anonymizer component.
func (c *Component) Start() error {
	c.r.Info().
		Stringer("mode", c.config.Mode).
		Bool("cache", c.cache != nil).
		Int("passthrough", c.passthrough.Len()).
		Msg("starting anonymizer component")
	c.r.RegisterHealthcheck("anonymizer", reporter.ChannelHealthcheck(c.t.Context(nil), c.healthy))
	var expire <-chan time.Time
	var ticker *clock.Ticker
	if c.cache != nil {
		ticker = c.d.Clock.Ticker(c.config.CacheDuration)
		expire = ticker.C
	}
	c.t.Go(func() error {
		if ticker != nil {
			defer ticker.Stop()
		}
		return c.run(expire)
	})
	return nil
}

// Stop stops the anonymizer component.
func (c *Component) Stop() error {
	defer c.r.Info().Msg("anonymizer component stopped")
	c.r.Info().Msg("stopping anonymizer component")
	c.t.Kill(nil)
	return c.t.Wait()
}

// run answers healthchecks and expires cache entries.
func (c *Component) run(expire <-chan time.Time) error {
	for {
		select {
		case <-c.t.Dying():
			return nil
		case cb := <-c.healthy:
			cb(reporter.HealthcheckOK, c.healthMessage)
		case now := <-expire:
			count := c.cache.DeleteLastAccessedBefore(now.Add(-c.config.CacheDuration))
			c.metrics.cacheExpired.Add(float64(count))
			c.r.Debug().Int("expired", count).Msg("expire anonymization cache")
		}
	}
}
