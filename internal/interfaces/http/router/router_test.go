package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carehours/backend/internal/infrastructure/auth"
	"github.com/carehours/backend/internal/interfaces/http/handler"
	"github.com/carehours/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup_AppliesAPIMiddlewareOnly(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "up") })

	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		c.Header("X-API", "1")
		c.Next()
	}))
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-API"))

	w = serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-API"))
}

func TestDomainGroup(t *testing.T) {
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("items", "/items").
			GET("", ok).
			POST("", ok).
			PUT("/:id", ok).
			PATCH("/:id", ok).
			DELETE("/:id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/items"},
			{http.MethodPost, "/api/v1/items"},
			{http.MethodPut, "/api/v1/items/1"},
			{http.MethodPatch, "/api/v1/items/1"},
			{http.MethodDelete, "/api/v1/items/1"},
		} {
			w := serve(engine, tc.method, tc.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, tc.path)
			assert.Equal(t, tc.method, w.Body.String())
		}
	})

	t.Run("group middleware runs before handlers", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("items", "/items").
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }).
			GET("", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/items").Code)
	})

	t.Run("subgroups nest prefixes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("payroll", "/payroll")
		g.Group("imports", "/imports").GET("/:id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/payroll/imports/1").Code)
		assert.Equal(t, []RouteInfo{{Method: http.MethodGet, Path: "/payroll/imports/:id"}}, g.Routes())
		assert.Equal(t, "payroll", g.Name())
		assert.Equal(t, "/payroll", g.Prefix())
	})
}

func testHandlers() Handlers {
	return Handlers{
		Auth:      handler.NewAuthHandler(nil),
		User:      handler.NewUserHandler(nil),
		Role:      handler.NewRoleHandler(nil),
		Client:    handler.NewClientHandler(nil),
		Provider:  handler.NewProviderHandler(nil),
		Insurance: handler.NewInsuranceHandler(nil),
		Timesheet: handler.NewTimesheetHandler(nil),
		Invoice:   handler.NewInvoiceHandler(nil),
		Community: handler.NewCommunityHandler(nil),
		Payroll:   handler.NewPayrollHandler(nil),
		Document:  handler.NewDocumentHandler(nil),
		Email:     handler.NewEmailHandler(nil, nil),
		Report:    handler.NewReportHandler(nil),
		Audit:     handler.NewAuditHandler(nil),
		System:    handler.NewSystemHandler("carehours-backend", nil),
	}
}

// withClaims stands in for the JWT and tenant middleware
func withClaims(permissions ...string) gin.HandlerFunc {
	tenantID := uuid.New()
	return func(c *gin.Context) {
		claims := &auth.Claims{
			TenantID:    tenantID.String(),
			UserID:      uuid.NewString(),
			Permissions: permissions,
			TokenType:   auth.TokenTypeAccess,
		}
		c.Set(middleware.JWTClaimsKey, claims)
		c.Set(middleware.JWTUserIDKey, claims.UserID)
		c.Set(middleware.JWTTenantIDKey, claims.TenantID)
		c.Next()
	}
}

func TestGroups_RouteTable(t *testing.T) {
	groups := Groups(testHandlers())

	seen := make(map[RouteInfo]bool)
	for _, g := range groups {
		for _, route := range g.Routes() {
			assert.False(t, seen[route], "duplicate route %s %s", route.Method, route.Path)
			seen[route] = true
		}
	}

	for _, want := range []RouteInfo{
		{http.MethodPost, "/auth/login"},
		{http.MethodPost, "/timesheets/:id/approve"},
		{http.MethodDelete, "/timesheets/:id/entries/:entry_id"},
		{http.MethodPost, "/invoices/generate"},
		{http.MethodPost, "/community-classes/:id/invoices"},
		{http.MethodPost, "/payroll/imports/:id/process"},
		{http.MethodGet, "/payroll/imports/:id/reconcile"},
		{http.MethodGet, "/documents/:id/download"},
		{http.MethodPost, "/emails/drain"},
		{http.MethodGet, "/reports/receivables-aging"},
		{http.MethodGet, "/audit-logs"},
	} {
		assert.True(t, seen[want], "missing route %s %s", want.Method, want.Path)
	}

	// gin panics on conflicting wildcards
	require.NotPanics(t, func() {
		RegisterGroups(NewRouter(gin.New()), groups).Setup()
	})
}

func TestGroups_PermissionGuards(t *testing.T) {
	tests := []struct {
		name        string
		permissions []string
		method      string
		path        string
		wantStatus  int
	}{
		{"approve needs timesheet:approve", []string{"timesheet:update"}, http.MethodPost, "/api/v1/timesheets/bad/approve", http.StatusForbidden},
		{"approver reaches handler", []string{"timesheet:approve"}, http.MethodPost, "/api/v1/timesheets/bad/approve", http.StatusBadRequest},
		{"wildcard covers action", []string{"timesheet:*"}, http.MethodPost, "/api/v1/timesheets/bad/submit", http.StatusBadRequest},
		{"payment needs invoice:pay", []string{"invoice:update"}, http.MethodPost, "/api/v1/invoices/bad/payments", http.StatusForbidden},
		{"process needs payroll:process", []string{"payroll:create"}, http.MethodPost, "/api/v1/payroll/imports/bad/process", http.StatusForbidden},
		{"reports need report:read", []string{"invoice:read"}, http.MethodGet, "/api/v1/reports/unbilled-units", http.StatusForbidden},
		{"admin passes every guard", []string{"*:*"}, http.MethodDelete, "/api/v1/clients/bad", http.StatusBadRequest},
		{"system routes need no permission", nil, http.MethodGet, "/api/v1/system/ping", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			r := NewRouter(engine, WithMiddleware(withClaims(tt.permissions...)))
			RegisterGroups(r, Groups(testHandlers())).Setup()

			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}
