package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormUserRepository_FindByID_NotFound(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormUserRepository(db)

	tenantID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE \(tenant_id = \$1 AND id = \$2\) AND "users"."deleted_at" IS NULL ORDER BY .* LIMIT .*`).
		WithArgs(tenantID, userID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	user, err := repo.FindByID(context.Background(), tenantID, userID)

	assert.Nil(t, user)
	assert.Equal(t, shared.ErrNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_ExistsByUsername(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormUserRepository(db)

	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE \(tenant_id = \$1 AND LOWER\(username\) = \$2\)`).
		WithArgs(tenantID, "admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByUsername(context.Background(), tenantID, "Admin")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositories_RoundTrip(t *testing.T) {
	db := newSQLiteDB(t)
	users := NewGormUserRepository(db)
	roles := NewGormRoleRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	role, err := identity.NewRole(tenantID, "scheduler", "Scheduler")
	require.NoError(t, err)
	require.NoError(t, role.SetPermissions([]string{"timesheet:read", "timesheet:approve"}))
	require.NoError(t, roles.Create(ctx, role))

	user, err := identity.NewUser(tenantID, "Alice", "alice@example.com", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, user.SetRoles([]uuid.UUID{role.ID}))
	require.NoError(t, users.Create(ctx, user))

	t.Run("user loads with roles", func(t *testing.T) {
		found, err := users.FindByUsername(ctx, tenantID, "ALICE")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{role.ID}, found.RoleIDs)
		assert.True(t, found.VerifyPassword("correct-horse"))

		anyTenant, err := users.FindByUsernameAnyTenant(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, anyTenant.ID)
	})

	t.Run("role loads with permissions", func(t *testing.T) {
		found, err := roles.FindByCode(ctx, tenantID, "scheduler")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"timesheet:read", "timesheet:approve"}, found.PermissionCodes())

		byIDs, err := roles.FindByIDs(ctx, tenantID, []uuid.UUID{role.ID})
		require.NoError(t, err)
		require.Len(t, byIDs, 1)
		assert.Len(t, byIDs[0].Permissions, 2)
	})

	t.Run("filters users by role", func(t *testing.T) {
		list, total, err := users.FindAll(ctx, tenantID, identity.UserFilter{RoleID: &role.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, list, 1)

		count, err := roles.CountUsersWithRole(ctx, role.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("updating permissions replaces them", func(t *testing.T) {
		require.NoError(t, role.SetPermissions([]string{"invoice:send"}))
		require.NoError(t, roles.Update(ctx, role))

		found, err := roles.FindByID(ctx, tenantID, role.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"invoice:send"}, found.PermissionCodes())
	})

	t.Run("deleting a role drops assignments", func(t *testing.T) {
		require.NoError(t, role.Delete())
		require.NoError(t, roles.Update(ctx, role))

		count, err := roles.CountUsersWithRole(ctx, role.ID)
		require.NoError(t, err)
		assert.Zero(t, count)

		_, err = roles.FindByID(ctx, tenantID, role.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
