package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carehours/backend/internal/infrastructure/auth"
	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/carehours/backend/internal/infrastructure/logger"
	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "carehours-test",
	})
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService, permissions ...string) (*auth.TokenPair, auth.Subject) {
	t.Helper()
	sub := auth.Subject{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "coordinator",
		RoleIDs:     []uuid.UUID{uuid.New()},
		Permissions: permissions,
	}
	pair, err := jwtService.IssueTokenPair(sub)
	require.NoError(t, err)
	return pair, sub
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, sub := newTestTokenPair(t, jwtService, "timesheet:read")

	var ctxTenant, ctxUser string
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, sub.UserID.String(), claims.UserID)
		assert.Equal(t, sub.TenantID.String(), GetJWTTenantID(c))
		assert.Equal(t, "coordinator", GetJWTUsername(c))
		assert.Equal(t, []string{"timesheet:read"}, GetJWTPermissions(c))
		ctxTenant = logger.GetTenantID(c.Request.Context())
		ctxUser = logger.GetUserID(c.Request.Context())
		okHandler(c)
	})

	rec := serve(router, http.MethodGet, "/test", pair.AccessToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sub.TenantID.String(), ctxTenant)
	assert.Equal(t, sub.UserID.String(), ctxUser)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", okHandler)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"wrong scheme", "Basic abc", dto.ErrCodeUnauthorized},
		{"empty token", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
		{"refresh token as access", "Bearer " + pair.RefreshToken, dto.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  -1 * time.Hour,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "carehours-test",
	})
	pair, _ := newTestTokenPair(t, jwtService)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", okHandler)

	rec := serve(router, http.MethodGet, "/test", pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, rec))
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", okHandler)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", pair.AccessToken).Code)

	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, time.Minute))
	rec := serve(router, http.MethodGet, "/test", pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, rec))
}

func TestJWTAuthMiddleware_UserRevoked(t *testing.T) {
	jwtService := newTestJWTService()
	pair, sub := newTestTokenPair(t, jwtService)

	blacklist := auth.NewInMemoryTokenBlacklist()
	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", okHandler)

	require.NoError(t, blacklist.RevokeUser(context.Background(), sub.UserID.String(), time.Hour))

	rec := serve(router, http.MethodGet, "/test", pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	jwtService := newTestJWTService()

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	for _, path := range []string{"/health", "/metrics", "/api/v1/auth/login", "/api/v1/auth/refresh", "/swagger/index.html"} {
		router.GET(path, okHandler)
	}

	for _, path := range []string{"/health", "/metrics", "/api/v1/auth/login", "/api/v1/auth/refresh", "/swagger/index.html"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, path, "").Code)
		})
	}
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTTenantID(c))
	assert.Nil(t, GetJWTPermissions(c))
}
