// Package middleware provides the gin middleware of the CareHours API.
package middleware

import (
	"github.com/carehours/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// HTTPMetrics records request count, latency and in-flight requests in the
// Prometheus registry. Routes are labelled with their pattern, never the raw
// path, to keep cardinality bounded.
func HTTPMetrics(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}
		done := telemetry.HTTPRequestStarted()
		c.Next()
		done(c.Request.Method, c.FullPath(), c.Writer.Status())
	}
}
