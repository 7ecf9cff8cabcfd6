// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"cryptopan/common/helpers"
	"cryptopan/common/reporter/logger"
	"cryptopan/common/reporter/metrics"
)

func newMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	return newMetricsWithConfiguration(t, metrics.DefaultConfiguration())
}

func newMetricsWithConfiguration(t *testing.T, config metrics.Configuration) *metrics.Metrics {
	t.Helper()
	l, err := logger.New(logger.DefaultConfiguration())
	if err != nil {
		t.Fatalf("logger.New() err:\n%+v", err)
	}
	m, err := metrics.New(l, config)
	if err != nil {
		t.Fatalf("metrics.New() err:\n%+v", err)
	}
	return m
}

func TestNew(t *testing.T) {
	m := newMetrics(t)

	counter := m.Factory(0).NewCounter(prometheus.CounterOpts{
		Name: "counter1",
		Help: "Some counter",
	})
	counter.Add(18)

	gauge := m.Factory(0).NewGauge(prometheus.GaugeOpts{
		Name: "gauge1",
		Help: "Some gauge",
	})
	gauge.Set(4)

	req := httptest.NewRequest("GET", "/api/v0/metrics", nil)
	w := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(w, req)
	got := strings.Split(w.Body.String(), "\n")

	found := false
	for _, line := range got {
		if line == "# TYPE go_goroutines gauge" {
			found = true
			break
		}
	}
	if !found {
		t.Error("GET /api/v0/metrics missing go_goroutines")
	}

	gotFiltered := []string{}
	for _, line := range got {
		if strings.Contains(line, "go_") || strings.Contains(line, "process_") {
			continue
		}
		gotFiltered = append(gotFiltered, line)
	}
	expected := []string{
		"# HELP cryptopan_common_reporter_metrics_test_counter1 Some counter",
		"# TYPE cryptopan_common_reporter_metrics_test_counter1 counter",
		"cryptopan_common_reporter_metrics_test_counter1 18",
		"# HELP cryptopan_common_reporter_metrics_test_gauge1 Some gauge",
		"# TYPE cryptopan_common_reporter_metrics_test_gauge1 gauge",
		"cryptopan_common_reporter_metrics_test_gauge1 4",
		"",
	}
	if diff := helpers.Diff(gotFiltered, expected); diff != "" {
		t.Fatalf("GET /api/v0/metrics (-got, +want):\n%s", diff)
	}
}

func TestWithoutCollectors(t *testing.T) {
	m := newMetricsWithConfiguration(t, metrics.Configuration{})
	m.Factory(0).NewCounter(prometheus.CounterOpts{
		Name: "packets_total",
		Help: "Some packets",
	}).Inc()

	req := httptest.NewRequest("GET", "/api/v0/metrics", nil)
	w := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(w, req)
	expected := []string{
		"# HELP cryptopan_common_reporter_metrics_test_packets_total Some packets",
		"# TYPE cryptopan_common_reporter_metrics_test_packets_total counter",
		"cryptopan_common_reporter_metrics_test_packets_total 1",
		"",
	}
	if diff := helpers.Diff(strings.Split(w.Body.String(), "\n"), expected); diff != "" {
		t.Fatalf("GET /api/v0/metrics (-got, +want):\n%s", diff)
	}
}

func TestFactoryCache(t *testing.T) {
	m := newMetrics(t)
	factory1 := m.Factory(0)
	factory2 := m.Factory(0)
	if factory1 != factory2 {
		t.Fatalf("Factory caching not working as expected")
	}
}

func TestRegisterTwice(t *testing.T) {
	m := newMetrics(t)
	counter1 := m.Factory(0).NewCounterVec(prometheus.CounterOpts{
		Name: "counter1",
		Help: "Some counter",
	}, []string{"label"})
	counter2 := m.Factory(0).NewCounterVec(prometheus.CounterOpts{
		Name: "counter1",
		Help: "Some counter",
	}, []string{"label"})
	if counter1 != counter2 {
		t.Fatalf("counter1 != counter2")
	}
}
