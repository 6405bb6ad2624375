package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user together with its role assignments
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.UserModelFromDomain(user)).Error; err != nil {
			return err
		}
		return replaceUserRoles(tx, user)
	})
}

// Update updates an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	result := r.db.WithContext(ctx).Save(models.UserModelFromDomain(user))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a user by ID within a tenant
func (r *GormUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return r.withRoles(ctx, model.ToDomain())
}

// FindByUsername finds a user by username within a tenant
func (r *GormUserRepository) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND username = ?", tenantID, strings.ToLower(username)).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return r.withRoles(ctx, model.ToDomain())
}

// FindByUsernameAnyTenant finds the oldest user with the username across tenants
func (r *GormUserRepository) FindByUsernameAnyTenant(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("username = ?", strings.ToLower(username)).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return r.withRoles(ctx, model.ToDomain())
}

// FindAll returns the users of a tenant with pagination
func (r *GormUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) ([]*identity.User, int64, error) {
	var userModels []*models.UserModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UserModel{}).Where("users.tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if err := query.Order("users.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&userModels).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*identity.User, len(userModels))
	ids := make([]uuid.UUID, len(userModels))
	for i, model := range userModels {
		users[i] = model.ToDomain()
		ids[i] = model.ID
	}
	if err := r.loadRolesFor(ctx, users, ids); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ExistsByUsername checks if a username already exists in the tenant
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("tenant_id = ? AND LOWER(username) = ?", tenantID, strings.ToLower(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveUserRoles saves the user's roles (replaces existing)
func (r *GormUserRepository) SaveUserRoles(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceUserRoles(tx, user)
	})
}

// Count returns the number of users of the tenant
func (r *GormUserRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func replaceUserRoles(tx *gorm.DB, user *identity.User) error {
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserRoleModel{}).Error; err != nil {
		return err
	}
	if len(user.RoleIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.UserRoleModel, len(user.RoleIDs))
	for i, roleID := range user.RoleIDs {
		rows[i] = models.UserRoleModel{
			UserID:    user.ID,
			RoleID:    roleID,
			TenantID:  user.TenantID,
			CreatedAt: now,
		}
	}
	return tx.Create(&rows).Error
}

func (r *GormUserRepository) withRoles(ctx context.Context, user *identity.User) (*identity.User, error) {
	if err := r.loadRolesFor(ctx, []*identity.User{user}, []uuid.UUID{user.ID}); err != nil {
		return nil, err
	}
	return user, nil
}

// loadRolesFor fills RoleIDs of the given users with one query
func (r *GormUserRepository) loadRolesFor(ctx context.Context, users []*identity.User, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var rows []models.UserRoleModel
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return err
	}
	byUser := make(map[uuid.UUID][]uuid.UUID, len(users))
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row.RoleID)
	}
	for _, u := range users {
		if roleIDs, ok := byUser[u.ID]; ok {
			u.RoleIDs = roleIDs
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormUserRepository) applyFilter(query *gorm.DB, filter identity.UserFilter) *gorm.DB {
	query = searchColumns(query, filter.Keyword, "users.username", "users.email", "users.display_name")

	if filter.Status != nil {
		query = query.Where("users.status = ?", *filter.Status)
	}

	if filter.RoleID != nil {
		query = query.Joins("JOIN user_roles ON users.id = user_roles.user_id").
			Where("user_roles.role_id = ?", *filter.RoleID)
	}

	return query
}

// Ensure GormUserRepository implements UserRepository
var _ identity.UserRepository = (*GormUserRepository)(nil)
