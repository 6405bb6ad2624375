// Package testutil provides shared fixtures for CareHours tests: databases,
// gin contexts and a recording event publisher.
package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/carehours/backend/internal/infrastructure/persistence"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// AllModels lists every persisted model in migration order
func AllModels() []any {
	return []any{
		&models.UserModel{},
		&models.UserRoleModel{},
		&models.RoleModel{},
		&models.RolePermissionModel{},
		&models.ClientModel{},
		&models.ProviderModel{},
		&models.InsuranceModel{},
		&models.TimesheetModel{},
		&models.TimesheetEntryModel{},
		&models.InvoiceModel{},
		&models.InvoiceEntryModel{},
		&models.CommunityClassModel{},
		&models.ClassAttendeeModel{},
		&models.CommunityInvoiceModel{},
		&models.PayrollImportModel{},
		&models.PayrollRowModel{},
		&models.FormDocumentModel{},
		&models.EmailQueueModel{},
		&models.AuditLogModel{},
	}
}

// NewSQLiteDB opens a migrated in-memory database that is closed when the
// test ends
func NewSQLiteDB(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil, gormlogger.Silent)
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })

	db.DB.Config.DisableForeignKeyConstraintWhenMigrating = true
	require.NoError(t, db.DB.AutoMigrate(AllModels()...), "Failed to migrate sqlite database")
	return db
}

// MockDB wraps a postgres-dialect gorm DB over sqlmock
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a MockDB whose expectations are checked on cleanup
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	m := &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet(), "Unmet database expectations")
		_ = mockDB.Close()
	})
	return m
}

// NewTestContext creates a gin context over a recorder with a GET / request
func NewTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))
}

// TestTenantID is the tenant used by fixtures unless a test needs isolation
func TestTenantID() uuid.UUID {
	return NewTestUUID("test-tenant")
}

// TestUserID is the acting user used by fixtures
func TestUserID() uuid.UUID {
	return NewTestUUID("test-user")
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// RequireEventually polls condition until it holds or timeout elapses
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
