// Package integration runs CareHours against a real PostgreSQL started with
// testcontainers. The schema comes from the embedded migrations, so these
// tests also cover the SQL files themselves.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/carehours/backend/internal/infrastructure/migration"
	"github.com/carehours/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testDBName     = "carehours_test"
	testDBUser     = "postgres"
	testDBPassword = "carehours"
)

var (
	// Shared container for all tests in the package
	sharedContainer    *tcpostgres.PostgresContainer
	sharedContainerCfg config.DatabaseConfig
	sharedContainerMu  sync.Mutex
)

// TestDB is a migrated database connection
type TestDB struct {
	*persistence.Database
	SqlDB *sql.DB
	Cfg   config.DatabaseConfig
	t     *testing.T
}

// NewTestDB returns a connection to the shared container. The schema is
// migrated once; tests call CleanTables when they need an empty database.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		startSharedContainer(t)
	}

	db, err := persistence.NewDatabase(&sharedContainerCfg, nil, gormlogger.Silent)
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	tdb := &TestDB{Database: db, SqlDB: sqlDB, Cfg: sharedContainerCfg, t: t}
	t.Cleanup(func() { _ = db.Close() })
	return tdb
}

func startSharedContainer(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            port.Int(),
		User:            testDBUser,
		Password:        testDBPassword,
		DBName:          testDBName,
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 300,
	}

	db, err := persistence.NewDatabase(&cfg, nil, gormlogger.Silent)
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, migration.Options{}, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
	_ = db.Close()

	sharedContainer = container
	sharedContainerCfg = cfg
}

// CleanTables truncates every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != ?
	`, migration.DefaultTable).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to list tables")

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			tdb.t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}
}

// CleanupSharedContainer terminates the shared container. Called from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
	}
}
