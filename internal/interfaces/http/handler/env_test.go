package handler

import (
	"testing"

	"github.com/carehours/backend/internal/application/directory"
	"github.com/carehours/backend/internal/application/notification"
	"github.com/carehours/backend/internal/application/payroll"
	"github.com/carehours/backend/internal/application/timesheet"
	"github.com/carehours/backend/internal/infrastructure/auth"
	"github.com/carehours/backend/internal/infrastructure/persistence"
	"github.com/carehours/backend/internal/interfaces/http/middleware"
	"github.com/carehours/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

const testReviewer = "review@example.com"

// testEnv serves the directory, timesheet, payroll and email handlers over
// real services and an in-memory database. The caller identity of the next
// request is whatever the env fields say at the time.
type testEnv struct {
	db          *persistence.Database
	engine      *gin.Engine
	publisher   *testutil.RecordingPublisher
	tenantID    uuid.UUID
	userID      uuid.UUID
	providerID  *uuid.UUID
	permissions []string
}

func newTestEnv(t *testing.T, jobs JobRunner) *testEnv {
	t.Helper()
	middleware.SetupValidator()

	db := testutil.NewSQLiteDB(t)
	log := zaptest.NewLogger(t)
	pub := testutil.NewRecordingPublisher()

	clientRepo := persistence.NewGormClientRepository(db.DB)
	providerRepo := persistence.NewGormProviderRepository(db.DB)
	insuranceRepo := persistence.NewGormInsuranceRepository(db.DB)
	timesheetRepo := persistence.NewGormTimesheetRepository(db.DB)
	payrollRepo := persistence.NewGormPayrollImportRepository(db.DB)
	emailRepo := persistence.NewGormEmailQueueRepository(db.DB)

	emails := notification.NewEmailService(emailRepo, log)
	clients := NewClientHandler(directory.NewClientService(clientRepo, insuranceRepo, pub, log))
	providers := NewProviderHandler(directory.NewProviderService(providerRepo, pub, log))
	timesheets := NewTimesheetHandler(timesheet.NewTimesheetService(
		timesheetRepo, providerRepo, clientRepo, emails, []string{testReviewer}, pub, log))
	payrolls := NewPayrollHandler(payroll.NewPayrollService(payrollRepo, providerRepo, timesheetRepo, pub, log))
	emailHandler := NewEmailHandler(emails, jobs)

	env := &testEnv{
		db:          db,
		engine:      gin.New(),
		publisher:   pub,
		tenantID:    uuid.New(),
		userID:      uuid.New(),
		permissions: []string{"*:*"},
	}

	api := env.engine.Group("/api/v1", env.authenticate)

	api.POST("/clients", clients.Create)
	api.GET("/clients", clients.List)
	api.GET("/clients/:id", clients.GetByID)
	api.PUT("/clients/:id", clients.Update)
	api.POST("/clients/:id/discharge", clients.Discharge)
	api.POST("/clients/:id/reactivate", clients.Reactivate)
	api.DELETE("/clients/:id", clients.Delete)

	api.POST("/providers", providers.Create)
	api.GET("/providers/:id", providers.GetByID)
	api.POST("/providers/:id/deactivate", providers.Deactivate)

	api.POST("/timesheets", timesheets.Create)
	api.GET("/timesheets", timesheets.List)
	api.GET("/timesheets/:id", timesheets.GetByID)
	api.POST("/timesheets/:id/entries", timesheets.AddEntry)
	api.DELETE("/timesheets/:id/entries/:entry_id", timesheets.RemoveEntry)
	api.POST("/timesheets/:id/submit", timesheets.Submit)
	api.POST("/timesheets/:id/approve", timesheets.Approve)
	api.POST("/timesheets/:id/reject", timesheets.Reject)
	api.DELETE("/timesheets/:id", timesheets.Delete)

	api.POST("/payroll/imports", payrolls.Upload)
	api.GET("/payroll/imports/:id", payrolls.GetByID)
	api.POST("/payroll/imports/:id/process", payrolls.Process)
	api.GET("/payroll/imports/:id/reconcile", payrolls.Reconcile)

	api.POST("/emails", emailHandler.Enqueue)
	api.GET("/emails", emailHandler.List)
	api.GET("/emails/drain", emailHandler.DrainStatus)
	api.POST("/emails/drain", emailHandler.Drain)
	api.GET("/emails/:id", emailHandler.GetByID)
	api.POST("/emails/:id/cancel", emailHandler.Cancel)
	api.POST("/emails/:id/retry", emailHandler.Retry)

	return env
}

// authenticate stands in for the JWT and tenant middleware
func (e *testEnv) authenticate(c *gin.Context) {
	claims := &auth.Claims{
		TenantID:    e.tenantID.String(),
		UserID:      e.userID.String(),
		Username:    "tester",
		Permissions: e.permissions,
		TokenType:   auth.TokenTypeAccess,
	}
	if e.providerID != nil {
		claims.ProviderID = e.providerID.String()
	}
	c.Set(middleware.JWTClaimsKey, claims)
	c.Set(middleware.JWTUserIDKey, claims.UserID)
	c.Set(middleware.JWTTenantIDKey, claims.TenantID)
	c.Set(middleware.TenantIDKey, claims.TenantID)
	c.Next()
}

// actAs switches the caller for later requests
func (e *testEnv) actAs(userID uuid.UUID, providerID *uuid.UUID, permissions ...string) {
	e.userID = userID
	e.providerID = providerID
	e.permissions = permissions
}
