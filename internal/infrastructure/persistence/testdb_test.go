package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newSQLiteDB opens a migrated in-memory database for repository round trips
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil, gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	database.DB.Config.DisableForeignKeyConstraintWhenMigrating = true
	require.NoError(t, database.DB.AutoMigrate(
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
	))
	return database.DB
}

// invoiceEntriesDDL mirrors the migration, including the reference from an
// invoice line to the timesheet entry it billed
const invoiceEntriesDDL = `CREATE TABLE invoice_entries (
	id                 uuid PRIMARY KEY,
	tenant_id          uuid NOT NULL,
	invoice_id         uuid NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
	timesheet_entry_id uuid REFERENCES timesheet_entries (id),
	service_date       date NOT NULL,
	description        varchar(500),
	service_code       varchar(20),
	minutes            integer NOT NULL DEFAULT 0,
	units              decimal(18,2) NOT NULL,
	rate               decimal(18,4) NOT NULL,
	amount             decimal(18,2) NOT NULL,
	created_at         datetime NOT NULL
)`

// newSQLiteBillingDB opens an in-memory database with foreign keys enforced
// for the tables billing touches
func newSQLiteBillingDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil, gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	db := database.DB
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(
		&models.TimesheetModel{},
		&models.TimesheetEntryModel{},
		&models.InvoiceModel{},
		&models.CommunityClassModel{},
		&models.ClassAttendeeModel{},
		&models.CommunityInvoiceModel{},
	))
	require.NoError(t, db.Exec(invoiceEntriesDDL).Error)
	return db
}

// newMockGormDB creates a postgres-dialect gorm DB over a mocked SQL connection
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mockDialector(mockDB), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func mockDialector(conn *sql.DB) gorm.Dialector {
	return postgres.New(postgres.Config{
		Conn:       conn,
		DriverName: "postgres",
	})
}
