package middleware

import (
	"context"
	"strings"

	"github.com/carehours/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling labels CPU and allocation samples with the HTTP method, route
// pattern and API area (the segment after /api/v1) so flame graphs can be
// filtered per endpoint.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || !strings.HasPrefix(route, "/api/") {
			c.Next()
			return
		}

		telemetry.WithProfilingLabels(c.Request.Context(), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		},
			"method", c.Request.Method,
			"route", route,
			"area", routeArea(route),
		)
	}
}

// routeArea returns the first segment after the API version,
// e.g. "/api/v1/invoices/:id/send" gives "invoices".
func routeArea(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	for i, p := range parts {
		if isVersionSegment(p) && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
