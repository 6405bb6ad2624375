package persistence

import (
	"context"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByIDForTenant finds a client by ID for a specific tenant
func (r *GormClientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the clients of a tenant with the given IDs
func (r *GormClientRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]directory.Client, error) {
	if len(ids) == 0 {
		return []directory.Client{}, nil
	}
	var clientModels []models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&clientModels).Error; err != nil {
		return nil, err
	}
	clients := make([]directory.Client, len(clientModels))
	for i := range clientModels {
		clients[i] = *clientModels[i].ToDomain()
	}
	return clients, nil
}

// FindAllForTenant finds all clients for a tenant with filtering
func (r *GormClientRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]directory.Client, error) {
	var clientModels []models.ClientModel
	query := r.db.WithContext(ctx).Model(&models.ClientModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, clientSortColumns, "last_name")

	if err := query.Find(&clientModels).Error; err != nil {
		return nil, err
	}
	clients := make([]directory.Client, len(clientModels))
	for i := range clientModels {
		clients[i] = *clientModels[i].ToDomain()
	}
	return clients, nil
}

// CountForTenant counts clients for a tenant with filtering
func (r *GormClientRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ClientModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActiveByInsurance counts non-discharged clients billed to an insurance
func (r *GormClientRepository) CountActiveByInsurance(ctx context.Context, tenantID, insuranceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ClientModel{}).
		Where("tenant_id = ? AND insurance_id = ? AND status = ?", tenantID, insuranceID, directory.ClientStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *directory.Client) error {
	return r.db.WithContext(ctx).Save(models.ClientModelFromDomain(client)).Error
}

func (r *GormClientRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "first_name", "last_name", "email", "member_number")

	for key := range filter.Filters {
		switch key {
		case "status":
			if v, ok := filterString(filter, key); ok {
				query = query.Where("status = ?", v)
			}
		case "insurance_id":
			if id, ok := filterUUID(filter, key); ok {
				query = query.Where("insurance_id = ?", id)
			}
		}
	}
	return query
}

// Ensure GormClientRepository implements ClientRepository
var _ directory.ClientRepository = (*GormClientRepository)(nil)
