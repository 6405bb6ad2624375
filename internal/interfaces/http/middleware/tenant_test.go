package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carehours/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantMiddleware_FromClaims(t *testing.T) {
	jwtService := newTestJWTService()
	pair, sub := newTestTokenPair(t, jwtService)

	var got uuid.UUID
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService), TenantMiddleware())
	router.GET("/api/v1/clients", func(c *gin.Context) {
		var err error
		got, err = GetTenantUUID(c)
		require.NoError(t, err)
		okHandler(c)
	})

	rec := serve(router, http.MethodGet, "/api/v1/clients", pair.AccessToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sub.TenantID, got)
}

func TestTenantMiddleware_IgnoresHeader(t *testing.T) {
	router := gin.New()
	router.Use(TenantMiddleware())
	router.GET("/api/v1/clients", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("X-Tenant-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantMiddleware_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(TenantMiddleware())
	router.GET("/health", okHandler)
	router.GET("/swagger/doc.json", okHandler)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/swagger/doc.json", "").Code)
}

func TestTenantMiddleware_Optional(t *testing.T) {
	cfg := DefaultTenantConfig()
	cfg.Required = false

	router := gin.New()
	router.Use(TenantMiddlewareWithConfig(cfg))
	router.GET("/open", okHandler)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/open", "").Code)
}

func TestRequestContext(t *testing.T) {
	jwtService := newTestJWTService()
	pair, sub := newTestTokenPair(t, jwtService)

	var requestID, tenantID, userID string
	var client logger.ClientInfo
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(jwtService), TenantMiddleware(), RequestContext())
	router.GET("/api/v1/invoices", func(c *gin.Context) {
		ctx := c.Request.Context()
		requestID = logger.GetRequestID(ctx)
		tenantID = logger.GetTenantID(ctx)
		userID = logger.GetUserID(ctx)
		client = logger.GetClient(ctx)
		okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("User-Agent", "carehours-test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", requestID)
	assert.Equal(t, sub.TenantID.String(), tenantID)
	assert.Equal(t, sub.UserID.String(), userID)
	assert.Equal(t, "carehours-test", client.UserAgent)
	assert.NotEmpty(t, client.IP)
}
