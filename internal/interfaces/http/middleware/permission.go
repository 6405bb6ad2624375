package middleware

import (
	"net/http"
	"strings"

	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/infrastructure/logger"
	"github.com/carehours/backend/internal/infrastructure/telemetry"
	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequirePermission lets the request through when the JWT claims grant any
// of the permissions. Wildcards in the claims ("invoice:*", "*:*") apply.
func RequirePermission(permissions ...string) gin.HandlerFunc {
	required := strings.Join(permissions, "|")
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		switch {
		case claims == nil:
			denyPermission(c, required, "no authentication claims")
		case !claims.HasAnyPermission(permissions...):
			denyPermission(c, required, "missing permission")
		default:
			c.Next()
		}
	}
}

// RequireResource derives the action from the HTTP method: GET reads, POST
// creates, PUT and PATCH update, DELETE deletes.
func RequireResource(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		action := identity.ActionForMethod(c.Request.Method)
		if action == "" {
			denyPermission(c, resource+":?", "method has no action")
			return
		}
		RequirePermission(resource + ":" + action)(c)
	}
}

func denyPermission(c *gin.Context, required, reason string) {
	telemetry.RecordPermissionDenied(required)
	logger.GetGinLogger(c).Warn("Permission denied",
		zap.String("reason", reason),
		zap.String("user_id", GetJWTUserID(c)),
		zap.String("required", required),
		zap.String("route", c.FullPath()),
	)
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden, "Access denied: insufficient permissions", c.GetString("request_id")))
}
