package middleware

import (
	"net/http"
	"strings"

	"github.com/carehours/backend/internal/infrastructure/logger"
	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantIDKey is the gin key holding the resolved tenant
const TenantIDKey = "tenant_id"

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths are served without a tenant (health, metrics, login)
	SkipPaths []string
	// Required rejects authenticated requests that carry no tenant claim
	Required bool
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/metrics", "/swagger", "/api/v1/auth/login", "/api/v1/auth/refresh"},
		Required:  true,
	}
}

// TenantMiddleware resolves the tenant from the JWT claims. Tenants are never
// taken from headers, so a token can only reach its own tenant's data.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		tenantID := GetJWTTenantID(c)
		if tenantID == "" {
			if cfg.Required {
				respondUnauthorized(c, "Tenant identification required")
				return
			}
			c.Next()
			return
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			respondUnauthorized(c, "Invalid tenant ID format")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

// RequestContext copies request, tenant, user and caller details into the
// request's context.Context, where services and the audit writer read them.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if requestID := c.GetString("request_id"); requestID != "" {
			ctx = logger.WithRequestID(ctx, requestID)
		}
		if tenantID := GetTenantID(c); tenantID != "" {
			ctx = logger.WithTenantID(ctx, tenantID)
		}
		if userID := GetJWTUserID(c); userID != "" {
			ctx = logger.WithUserID(ctx, userID)
		}
		ctx = logger.WithClient(ctx, logger.ClientInfo{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, c.GetString("request_id")))
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	if tenantID := c.GetString(TenantIDKey); tenantID != "" {
		return tenantID
	}
	return GetJWTTenantID(c)
}

// GetTenantUUID retrieves the tenant ID as UUID from gin.Context
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(GetTenantID(c))
}
