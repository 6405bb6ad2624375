package persistence

import (
	"context"
	"strings"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProviderRepository implements ProviderRepository using GORM
type GormProviderRepository struct {
	db *gorm.DB
}

// NewGormProviderRepository creates a new GormProviderRepository
func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// FindByIDForTenant finds a provider by ID for a specific tenant
func (r *GormProviderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Provider, error) {
	var model models.ProviderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a provider by email within a tenant
func (r *GormProviderRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*directory.Provider, error) {
	var model models.ProviderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByNPI finds a provider by NPI within a tenant
func (r *GormProviderRepository) FindByNPI(ctx context.Context, tenantID uuid.UUID, npi string) (*directory.Provider, error) {
	var model models.ProviderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND npi = ?", tenantID, strings.TrimSpace(npi)).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all providers for a tenant with filtering
func (r *GormProviderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]directory.Provider, error) {
	var providerModels []models.ProviderModel
	query := r.db.WithContext(ctx).Model(&models.ProviderModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, providerSortColumns, "last_name")

	if err := query.Find(&providerModels).Error; err != nil {
		return nil, err
	}
	providers := make([]directory.Provider, len(providerModels))
	for i := range providerModels {
		providers[i] = *providerModels[i].ToDomain()
	}
	return providers, nil
}

// CountForTenant counts providers for a tenant with filtering
func (r *GormProviderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProviderModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByEmail checks if the email is taken, optionally ignoring one provider
func (r *GormProviderRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProviderModel{}).
		Where("tenant_id = ? AND email = ?", tenantID, strings.ToLower(strings.TrimSpace(email)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a provider
func (r *GormProviderRepository) Save(ctx context.Context, provider *directory.Provider) error {
	return r.db.WithContext(ctx).Save(models.ProviderModelFromDomain(provider)).Error
}

func (r *GormProviderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "first_name", "last_name", "email", "npi")

	for key := range filter.Filters {
		switch key {
		case "status":
			if v, ok := filterString(filter, key); ok {
				query = query.Where("status = ?", v)
			}
		case "credential":
			if v, ok := filterString(filter, key); ok {
				query = query.Where("credential = ?", strings.ToUpper(v))
			}
		}
	}
	return query
}

// Ensure GormProviderRepository implements ProviderRepository
var _ directory.ProviderRepository = (*GormProviderRepository)(nil)
