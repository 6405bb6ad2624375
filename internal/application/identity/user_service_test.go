package identity

import (
	"context"
	"testing"

	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	users, roles := new(MockUserRepository), new(MockRoleRepository)
	pub := &capturePublisher{}
	svc := NewUserService(users, roles, nil, pub, zap.NewNop())
	role := createTestRole(t, tenantID, "timesheet:read")

	users.On("ExistsByUsername", ctx, tenantID, "jdoe").Return(false, nil)
	roles.On("FindByIDs", ctx, tenantID, []uuid.UUID{role.ID}).Return([]*identity.Role{role}, nil)
	users.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

	resp, err := svc.Create(ctx, tenantID, CreateUserRequest{
		Username:    "JDoe",
		Password:    testPassword,
		Email:       "jdoe@example.com",
		DisplayName: "Jane Doe",
		RoleIDs:     []uuid.UUID{role.ID},
	})

	require.NoError(t, err)
	assert.Equal(t, "jdoe", resp.Username)
	assert.Equal(t, "Jane Doe", resp.DisplayName)
	assert.Equal(t, []uuid.UUID{role.ID}, resp.RoleIDs)
	assert.Contains(t, pub.types(), identity.EventTypeUserCreated)
	users.AssertExpectations(t)
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockRoleRepository), nil, nil, zap.NewNop())

	users.On("ExistsByUsername", ctx, tenantID, "jdoe").Return(true, nil)

	_, err := svc.Create(ctx, tenantID, CreateUserRequest{Username: "jdoe", Password: testPassword})
	assertDomainCode(t, err, "ALREADY_EXISTS")
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_AssignRoles_UnknownRole(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	roles := new(MockRoleRepository)
	svc := NewUserService(new(MockUserRepository), roles, nil, nil, zap.NewNop())
	missing := uuid.New()

	roles.On("FindByIDs", ctx, tenantID, []uuid.UUID{missing}).Return([]*identity.Role{}, nil)

	_, err := svc.AssignRoles(ctx, tenantID, uuid.New(), AssignRolesRequest{RoleIDs: []uuid.UUID{missing}})
	assertDomainCode(t, err, "INVALID_INPUT")
}

func TestUserService_AssignRoles(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	users, roles := new(MockUserRepository), new(MockRoleRepository)
	pub := &capturePublisher{}
	svc := NewUserService(users, roles, nil, pub, zap.NewNop())
	user := createTestUser(t, tenantID)
	role := createTestRole(t, tenantID)

	roles.On("FindByIDs", ctx, tenantID, []uuid.UUID{role.ID, role.ID}).Return([]*identity.Role{role}, nil)
	users.On("FindByID", ctx, tenantID, user.ID).Return(user, nil)
	users.On("SaveUserRoles", ctx, user).Return(nil)
	users.On("Update", ctx, user).Return(nil)

	resp, err := svc.AssignRoles(ctx, tenantID, user.ID, AssignRolesRequest{RoleIDs: []uuid.UUID{role.ID, role.ID}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{role.ID}, resp.RoleIDs)
	assert.Equal(t, []string{identity.EventTypeUserRolesChanged}, pub.types())
}

func TestUserService_DeactivateSelf(t *testing.T) {
	svc := NewUserService(new(MockUserRepository), new(MockRoleRepository), nil, nil, zap.NewNop())
	id := uuid.New()

	_, err := svc.Deactivate(context.Background(), uuid.New(), id, id)
	assertDomainCode(t, err, "INVALID_STATE")

	err = svc.Delete(context.Background(), uuid.New(), id, id)
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestUserService_UnlockAndDelete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockRoleRepository), nil, nil, zap.NewNop())
	user := createTestUser(t, tenantID)
	user.Lock(0)

	users.On("FindByID", ctx, tenantID, user.ID).Return(user, nil)
	users.On("Update", ctx, user).Return(nil)

	resp, err := svc.Unlock(ctx, tenantID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Status)

	require.NoError(t, svc.Delete(ctx, tenantID, user.ID, uuid.New()))
	assert.True(t, user.IsDeleted())
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockRoleRepository), nil, nil, zap.NewNop())
	user := createTestUser(t, tenantID)
	status := identity.UserStatusActive

	users.On("FindAll", ctx, tenantID, identity.UserFilter{Keyword: "test", Status: &status, Page: 2, Limit: 10}).
		Return([]*identity.User{user}, int64(11), nil)

	list, total, err := svc.List(ctx, tenantID, UserListFilter{Page: 2, PageSize: 10, Search: "test", Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, list, 1)

	_, _, err = svc.List(ctx, tenantID, UserListFilter{RoleID: "not-a-uuid"})
	assertDomainCode(t, err, "INVALID_INPUT")
}

func TestRoleService_CreateAndSetPermissions(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	roles := new(MockRoleRepository)
	pub := &capturePublisher{}
	svc := NewRoleService(roles, new(MockUserRepository), pub, zap.NewNop())

	roles.On("ExistsByCode", ctx, tenantID, "billing").Return(false, nil)
	roles.On("Create", ctx, mock.AnythingOfType("*identity.Role")).Return(nil)

	resp, err := svc.Create(ctx, tenantID, CreateRoleRequest{
		Code:        "billing",
		Name:        "Billing",
		Description: "Invoices and payments",
		Permissions: []string{"invoice:*", "invoice:*", "client:read"},
	})
	require.NoError(t, err)
	assert.Equal(t, "BILLING", resp.Code)
	assert.Equal(t, []string{"invoice:*", "client:read"}, resp.Permissions)

	roles.On("ExistsByCode", ctx, tenantID, "X").Return(false, nil)
	_, err = svc.Create(ctx, tenantID, CreateRoleRequest{Code: "X", Name: "X", Permissions: []string{"invoice:explode"}})
	roles.AssertNumberOfCalls(t, "Create", 1)
	assert.Error(t, err)
}

func TestRoleService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	roles := new(MockRoleRepository)
	svc := NewRoleService(roles, new(MockUserRepository), nil, zap.NewNop())

	inUse := createTestRole(t, tenantID)
	roles.On("FindByID", ctx, tenantID, inUse.ID).Return(inUse, nil)
	roles.On("CountUsersWithRole", ctx, inUse.ID).Return(int64(2), nil)
	assertDomainCode(t, svc.Delete(ctx, tenantID, inUse.ID), "INVALID_STATE")

	system, err := identity.NewSystemRole(tenantID, AdminRoleCode, "Administrator")
	require.NoError(t, err)
	roles.On("FindByID", ctx, tenantID, system.ID).Return(system, nil)
	roles.On("CountUsersWithRole", ctx, system.ID).Return(int64(0), nil)
	assertDomainCode(t, svc.Delete(ctx, tenantID, system.ID), "SYSTEM_ROLE")

	free := createTestRole(t, tenantID)
	roles.On("FindByID", ctx, tenantID, free.ID).Return(free, nil)
	roles.On("CountUsersWithRole", ctx, free.ID).Return(int64(0), nil)
	roles.On("Update", ctx, free).Return(nil)
	require.NoError(t, svc.Delete(ctx, tenantID, free.ID))
	assert.True(t, free.IsDeleted())
}

func TestBootstrapper_Run(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	users, roles := new(MockUserRepository), new(MockRoleRepository)
	b := NewBootstrapper(users, roles, zap.NewNop())

	roles.On("FindByCode", ctx, tenantID, AdminRoleCode).Return(nil, shared.ErrNotFound).Once()
	roles.On("Create", ctx, mock.MatchedBy(func(r *identity.Role) bool {
		return r.IsSystem && r.HasPermission("payroll:process")
	})).Return(nil)
	users.On("ExistsByUsername", ctx, tenantID, "admin").Return(false, nil).Once()
	users.On("Create", ctx, mock.MatchedBy(func(u *identity.User) bool {
		return u.Username == "admin" && len(u.RoleIDs) == 1
	})).Return(nil)

	require.NoError(t, b.Run(ctx, BootstrapInput{TenantID: tenantID, Username: "admin", Password: "Admin12345"}))

	existing, err := identity.NewSystemRole(tenantID, AdminRoleCode, "Administrator")
	require.NoError(t, err)
	roles.On("FindByCode", ctx, tenantID, AdminRoleCode).Return(existing, nil)
	users.On("ExistsByUsername", ctx, tenantID, "admin").Return(true, nil)

	require.NoError(t, b.Run(ctx, BootstrapInput{TenantID: tenantID, Username: "admin", Password: "Admin12345"}))
	roles.AssertNumberOfCalls(t, "Create", 1)
	users.AssertNumberOfCalls(t, "Create", 1)
}
