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

// GormInsuranceRepository implements InsuranceRepository using GORM
type GormInsuranceRepository struct {
	db *gorm.DB
}

// NewGormInsuranceRepository creates a new GormInsuranceRepository
func NewGormInsuranceRepository(db *gorm.DB) *GormInsuranceRepository {
	return &GormInsuranceRepository{db: db}
}

// FindByIDForTenant finds an insurance by ID for a specific tenant
func (r *GormInsuranceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Insurance, error) {
	var model models.InsuranceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all insurances for a tenant with filtering
func (r *GormInsuranceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]directory.Insurance, error) {
	var insuranceModels []models.InsuranceModel
	query := r.db.WithContext(ctx).Model(&models.InsuranceModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, insuranceSortColumns, "name")

	if err := query.Find(&insuranceModels).Error; err != nil {
		return nil, err
	}
	insurances := make([]directory.Insurance, len(insuranceModels))
	for i := range insuranceModels {
		insurances[i] = *insuranceModels[i].ToDomain()
	}
	return insurances, nil
}

// CountForTenant counts insurances for a tenant with filtering
func (r *GormInsuranceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.InsuranceModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByPayerID checks if the payer ID is taken, optionally ignoring one insurance
func (r *GormInsuranceRepository) ExistsByPayerID(ctx context.Context, tenantID uuid.UUID, payerID string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.InsuranceModel{}).
		Where("tenant_id = ? AND payer_id = ?", tenantID, strings.ToUpper(strings.TrimSpace(payerID)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an insurance
func (r *GormInsuranceRepository) Save(ctx context.Context, insurance *directory.Insurance) error {
	return r.db.WithContext(ctx).Save(models.InsuranceModelFromDomain(insurance)).Error
}

func (r *GormInsuranceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "name", "payer_id")
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	return query
}

// Ensure GormInsuranceRepository implements InsuranceRepository
var _ directory.InsuranceRepository = (*GormInsuranceRepository)(nil)
