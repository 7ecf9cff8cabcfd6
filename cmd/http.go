// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"cryptopan/common/httpserver"
	"cryptopan/common/reporter"
)

// addCommonHTTPHandlers configures various endpoints common to all
// services. Each endpoint is registered under `/api/v0` and
// `/api/v0/SERVICE` namespaces.
func addCommonHTTPHandlers(r *reporter.Reporter, service string, httpComponent *httpserver.Component) {
	metrics := gin.WrapH(r.MetricsHTTPHandler())
	for _, prefix := range []string{"/api/v0", fmt.Sprintf("/api/v0/%s", service)} {
		httpComponent.GinRouter.GET(prefix+"/metrics", metrics)
		httpComponent.GinRouter.GET(prefix+"/healthcheck", r.HealthcheckHTTPHandler)
		httpComponent.GinRouter.GET(prefix+"/version", versionHandler)
	}
}
