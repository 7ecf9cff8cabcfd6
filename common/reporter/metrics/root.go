// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics handles metrics for cryptopan
//
// This is a wrapper around Prometheus Go client.
package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptopan/common/reporter/logger"
	"cryptopan/common/reporter/stack"
)

// Metrics represents the internal state of the metric subsystem.
type Metrics struct {
	logger           logger.Logger
	config           Configuration
	registry         *prometheus.Registry
	factoryCache     map[string]*Factory
	factoryCacheLock sync.RWMutex
}

// New creates a new metric registry and setup the appropriate
// exporters.
func New(logger logger.Logger, configuration Configuration) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	if configuration.ProcessCollector {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if configuration.GoCollector {
		reg.MustRegister(collectors.NewGoCollector())
	}
	return &Metrics{
		logger:       logger,
		config:       configuration,
		registry:     reg,
		factoryCache: make(map[string]*Factory),
	}, nil
}

// HTTPHandler returns an handler to server Prometheus metrics.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: promHTTPLogger{m.logger},
	})
}

// getPrefix turns "cryptopan/anonymizer.(*Component).initMetrics" into
// "cryptopan_anonymizer_".
func getPrefix(module string) string {
	moduleName := stack.ModuleName
	if strings.HasPrefix(module, stack.ModuleName) {
		moduleName = strings.SplitN(module, ".", 2)[0]
	}
	moduleName = strings.NewReplacer("/", "_", ".", "_").Replace(moduleName)
	return moduleName + "_"
}

// Factory returns a factory to register new metrics. It includes the module
// as an automatic prefix. This method is expected to be called only from our
// own module to avoid walking the stack too often. It uses a cache to speedup
// things a little bit.
func (m *Metrics) Factory(skipCallstack int) *Factory {
	callStack := stack.Callers()
	call := callStack[1+skipCallstack] // Trial and error, there is a test to check it works
	module := call.FunctionName()

	m.factoryCacheLock.RLock()
	factory, ok := m.factoryCache[module]
	m.factoryCacheLock.RUnlock()
	if ok {
		return factory
	}

	m.factoryCacheLock.Lock()
	defer m.factoryCacheLock.Unlock()
	factory = &Factory{
		prefix:   getPrefix(module),
		registry: m.registry,
	}
	m.factoryCache[module] = factory
	return factory
}
