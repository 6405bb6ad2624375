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

// GormRoleRepository implements RoleRepository using GORM
type GormRoleRepository struct {
	db *gorm.DB
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{db: db}
}

// Create creates a new role with its permissions
func (r *GormRoleRepository) Create(ctx context.Context, role *identity.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.RoleModelFromDomain(role)).Error; err != nil {
			return err
		}
		return replaceRolePermissions(tx, role)
	})
}

// Update updates a role and replaces its permissions
func (r *GormRoleRepository) Update(ctx context.Context, role *identity.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Save(models.RoleModelFromDomain(role))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if role.IsDeleted() {
			return tx.Where("role_id = ?", role.ID).Delete(&models.UserRoleModel{}).Error
		}
		return replaceRolePermissions(tx, role)
	})
}

// FindByID finds a role by ID within a tenant
func (r *GormRoleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.Role, error) {
	var model models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	roles := []*identity.Role{model.ToDomain()}
	if err := r.loadPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles[0], nil
}

// FindByCode finds a role by code within a tenant
func (r *GormRoleRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*identity.Role, error) {
	var model models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	roles := []*identity.Role{model.ToDomain()}
	if err := r.loadPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles[0], nil
}

// FindByIDs finds the roles of a tenant by ID, permissions included
func (r *GormRoleRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*identity.Role, error) {
	if len(ids) == 0 {
		return []*identity.Role{}, nil
	}
	var roleModels []models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&roleModels).Error; err != nil {
		return nil, err
	}
	roles := make([]*identity.Role, len(roleModels))
	for i := range roleModels {
		roles[i] = roleModels[i].ToDomain()
	}
	if err := r.loadPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// FindAll returns the roles of a tenant with pagination
func (r *GormRoleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.RoleFilter) ([]*identity.Role, int64, error) {
	var roleModels []models.RoleModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RoleModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if err := query.Order("code ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&roleModels).Error; err != nil {
		return nil, 0, err
	}

	roles := make([]*identity.Role, len(roleModels))
	for i := range roleModels {
		roles[i] = roleModels[i].ToDomain()
	}
	if err := r.loadPermissions(ctx, roles); err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

// ExistsByCode checks if a role code is taken in the tenant
func (r *GormRoleRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RoleModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountUsersWithRole counts users assigned to a role
func (r *GormRoleRepository) CountUsersWithRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserRoleModel{}).
		Where("role_id = ?", roleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func replaceRolePermissions(tx *gorm.DB, role *identity.Role) error {
	if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermissionModel{}).Error; err != nil {
		return err
	}
	if len(role.Permissions) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.RolePermissionModel, len(role.Permissions))
	for i, perm := range role.Permissions {
		rows[i] = models.RolePermissionModel{
			RoleID:      role.ID,
			TenantID:    role.TenantID,
			Code:        perm.Code,
			Resource:    perm.Resource,
			Action:      perm.Action,
			Description: perm.Description,
			CreatedAt:   now,
		}
	}
	return tx.Create(&rows).Error
}

// loadPermissions fills the permissions of the given roles with one query
func (r *GormRoleRepository) loadPermissions(ctx context.Context, roles []*identity.Role) error {
	if len(roles) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(roles))
	for i, role := range roles {
		ids[i] = role.ID
	}
	var rows []models.RolePermissionModel
	if err := r.db.WithContext(ctx).
		Where("role_id IN ?", ids).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return err
	}
	byRole := make(map[uuid.UUID][]identity.Permission, len(roles))
	for i := range rows {
		byRole[rows[i].RoleID] = append(byRole[rows[i].RoleID], rows[i].ToDomain())
	}
	for _, role := range roles {
		if perms, ok := byRole[role.ID]; ok {
			role.Permissions = perms
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormRoleRepository) applyFilter(query *gorm.DB, filter identity.RoleFilter) *gorm.DB {
	query = searchColumns(query, filter.Keyword, "code", "name")
	if filter.IsEnabled != nil {
		query = query.Where("is_enabled = ?", *filter.IsEnabled)
	}
	return query
}

// Ensure GormRoleRepository implements RoleRepository
var _ identity.RoleRepository = (*GormRoleRepository)(nil)
