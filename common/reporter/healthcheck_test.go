// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package reporter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cryptopan/common/helpers"
	"cryptopan/common/reporter"
)

func staticHealthcheck(status reporter.HealthcheckStatus, reason string) reporter.HealthcheckFunc {
	return func(context.Context) reporter.HealthcheckResult {
		return reporter.HealthcheckResult{Status: status, Reason: reason}
	}
}

func TestRunHealthchecks(t *testing.T) {
	cases := []struct {
		Description  string
		Healthchecks map[string]reporter.HealthcheckFunc
		Expected     reporter.MultipleHealthcheckResults
	}{
		{
			Description: "no healthcheck",
			Expected: reporter.MultipleHealthcheckResults{
				Status:  reporter.HealthcheckOK,
				Details: map[string]reporter.HealthcheckResult{},
			},
		}, {
			Description: "one healthcheck",
			Healthchecks: map[string]reporter.HealthcheckFunc{
				"anonymizer": staticHealthcheck(reporter.HealthcheckOK, "cryptopan mode with aes"),
			},
			Expected: reporter.MultipleHealthcheckResults{
				Status: reporter.HealthcheckOK,
				Details: map[string]reporter.HealthcheckResult{
					"anonymizer": {Status: reporter.HealthcheckOK, Reason: "cryptopan mode with aes"},
				},
			},
		}, {
			Description: "warning",
			Healthchecks: map[string]reporter.HealthcheckFunc{
				"anonymizer": staticHealthcheck(reporter.HealthcheckOK, "cryptopan mode with aes"),
				"cache":      staticHealthcheck(reporter.HealthcheckWarning, "cache is full"),
			},
			Expected: reporter.MultipleHealthcheckResults{
				Status: reporter.HealthcheckWarning,
				Details: map[string]reporter.HealthcheckResult{
					"anonymizer": {Status: reporter.HealthcheckOK, Reason: "cryptopan mode with aes"},
					"cache":      {Status: reporter.HealthcheckWarning, Reason: "cache is full"},
				},
			},
		}, {
			Description: "error",
			Healthchecks: map[string]reporter.HealthcheckFunc{
				"anonymizer": staticHealthcheck(reporter.HealthcheckError, "no key"),
				"cache":      staticHealthcheck(reporter.HealthcheckWarning, "cache is full"),
			},
			Expected: reporter.MultipleHealthcheckResults{
				Status: reporter.HealthcheckError,
				Details: map[string]reporter.HealthcheckResult{
					"anonymizer": {Status: reporter.HealthcheckError, Reason: "no key"},
					"cache":      {Status: reporter.HealthcheckWarning, Reason: "cache is full"},
				},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.Description, func(t *testing.T) {
			r := reporter.NewMock(t)
			for name, hf := range tc.Healthchecks {
				r.RegisterHealthcheck(name, hf)
			}
			got := r.RunHealthchecks(context.Background())
			if diff := helpers.Diff(got, tc.Expected); diff != "" {
				t.Errorf("RunHealthchecks() (-got, +want):\n%s", diff)
			}
		})
	}
}

func TestHealthcheckCancelContext(t *testing.T) {
	r := reporter.NewMock(t)
	r.RegisterHealthcheck("anonymizer", staticHealthcheck(reporter.HealthcheckOK, "all well"))
	r.RegisterHealthcheck("stuck", func(ctx context.Context) reporter.HealthcheckResult {
		<-ctx.Done()
		return reporter.HealthcheckResult{Status: reporter.HealthcheckOK, Reason: "too late"}
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	got := r.RunHealthchecks(ctx)
	expected := reporter.MultipleHealthcheckResults{
		Status: reporter.HealthcheckError,
		Details: map[string]reporter.HealthcheckResult{
			"anonymizer": {Status: reporter.HealthcheckOK, Reason: "all well"},
			"stuck":      {Status: reporter.HealthcheckError, Reason: "timeout during check"},
		},
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Errorf("RunHealthchecks() (-got, +want):\n%s", diff)
	}
}

func TestChannelHealthcheck(t *testing.T) {
	t.Run("alive", func(t *testing.T) {
		contact := make(chan reporter.ChannelHealthcheckFunc)
		go func() {
			select {
			case f := <-contact:
				f(reporter.HealthcheckOK, "all well, thank you!")
			case <-time.After(time.Second):
			}
		}()
		hf := reporter.ChannelHealthcheck(context.Background(), contact)
		got := hf(context.Background())
		expected := reporter.HealthcheckResult{Status: reporter.HealthcheckOK, Reason: "all well, thank you!"}
		if diff := helpers.Diff(got, expected); diff != "" {
			t.Errorf("ChannelHealthcheck() (-got, +want):\n%s", diff)
		}
	})

	t.Run("dead", func(t *testing.T) {
		componentCtx, cancel := context.WithCancel(context.Background())
		cancel()
		hf := reporter.ChannelHealthcheck(componentCtx, make(chan reporter.ChannelHealthcheckFunc))
		got := hf(context.Background())
		expected := reporter.HealthcheckResult{Status: reporter.HealthcheckError, Reason: "dead"}
		if diff := helpers.Diff(got, expected); diff != "" {
			t.Errorf("ChannelHealthcheck() (-got, +want):\n%s", diff)
		}
	})

	t.Run("not answering", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		hf := reporter.ChannelHealthcheck(context.Background(), make(chan reporter.ChannelHealthcheckFunc))
		got := hf(ctx)
		expected := reporter.HealthcheckResult{Status: reporter.HealthcheckError, Reason: "timeout"}
		if diff := helpers.Diff(got, expected); diff != "" {
			t.Errorf("ChannelHealthcheck() (-got, +want):\n%s", diff)
		}
	})
}

func TestHealthcheckHTTPHandler(t *testing.T) {
	cases := []struct {
		Description string
		Status      reporter.HealthcheckStatus
		Code        int
		Expected    gin.H
	}{
		{
			Description: "healthy",
			Status:      reporter.HealthcheckOK,
			Code:        http.StatusOK,
			Expected: gin.H{
				"status": "ok",
				"details": map[string]any{
					"anonymizer": map[string]any{"status": "ok", "reason": "checked"},
				},
			},
		}, {
			Description: "warning",
			Status:      reporter.HealthcheckWarning,
			Code:        http.StatusOK,
			Expected: gin.H{
				"status": "warning",
				"details": map[string]any{
					"anonymizer": map[string]any{"status": "warning", "reason": "checked"},
				},
			},
		}, {
			Description: "unhealthy",
			Status:      reporter.HealthcheckError,
			Code:        http.StatusServiceUnavailable,
			Expected: gin.H{
				"status": "error",
				"details": map[string]any{
					"anonymizer": map[string]any{"status": "error", "reason": "checked"},
				},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.Description, func(t *testing.T) {
			r := reporter.NewMock(t)
			r.RegisterHealthcheck("anonymizer", staticHealthcheck(tc.Status, "checked"))

			req := httptest.NewRequest("GET", "/api/v0/healthcheck", nil)
			w := httptest.NewRecorder()
			ginRouter := gin.New()
			ginRouter.GET("/api/v0/healthcheck", r.HealthcheckHTTPHandler)
			ginRouter.ServeHTTP(w, req)
			if w.Code != tc.Code {
				t.Errorf("GET /api/v0/healthcheck status code, got %d, expected %d", w.Code, tc.Code)
			}
			var got gin.H
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("GET /api/v0/healthcheck error:\n%+v", err)
			}
			if diff := helpers.Diff(got, tc.Expected); diff != "" {
				t.Errorf("GET /api/v0/healthcheck (-got, +want):\n%s", diff)
			}
		})
	}
}
