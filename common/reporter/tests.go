// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package reporter

import (
	"bufio"
	"net/http/httptest"
	"strings"
	"testing"
)

// NewMock creates a new reporter for tests. Currently, this is the same as a
// production reporter.
func NewMock(t testing.TB) *Reporter {
	t.Helper()
	r, err := New(DefaultConfiguration())
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	return r
}

// GetMetrics returns the exposed metrics whose name starts with the provided
// prefix, keyed by name and labels with the prefix removed. When additional
// prefixes are provided, only the metrics starting with one of them are
// returned.
func (r *Reporter) GetMetrics(prefix string, subset ...string) map[string]string {
	req := httptest.NewRequest("GET", "/api/v0/metrics", nil)
	w := httptest.NewRecorder()
	r.MetricsHTTPHandler().ServeHTTP(w, req)

	got := map[string]string{}
	scanner := bufio.NewScanner(w.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || !strings.HasPrefix(line, prefix) {
			continue
		}
		key, value, ok := cutLast(strings.TrimPrefix(line, prefix), " ")
		if !ok {
			continue
		}
		if len(subset) > 0 {
			found := false
			for _, n := range subset {
				if strings.HasPrefix(key, n) {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		got[key] = value
	}
	return got
}

func cutLast(s, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
