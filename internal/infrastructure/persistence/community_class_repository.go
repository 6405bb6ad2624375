package persistence

import (
	"context"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommunityClassRepository implements CommunityClassRepository using GORM
type GormCommunityClassRepository struct {
	db *gorm.DB
}

// NewGormCommunityClassRepository creates a new GormCommunityClassRepository
func NewGormCommunityClassRepository(db *gorm.DB) *GormCommunityClassRepository {
	return &GormCommunityClassRepository{db: db}
}

func preloadAttendees(db *gorm.DB) *gorm.DB {
	return db.Order("class_attendees.position ASC")
}

// FindByIDForTenant finds a class by ID for a specific tenant, attendees included
func (r *GormCommunityClassRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.CommunityClass, error) {
	var model models.CommunityClassModel
	if err := r.db.WithContext(ctx).
		Preload("Attendees", preloadAttendees).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all classes for a tenant with filtering
func (r *GormCommunityClassRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.CommunityClass, error) {
	var classModels []models.CommunityClassModel
	query := r.db.WithContext(ctx).Model(&models.CommunityClassModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, communityClassSortColumns, "scheduled_at")

	if err := query.Preload("Attendees", preloadAttendees).Find(&classModels).Error; err != nil {
		return nil, err
	}
	classes := make([]billing.CommunityClass, len(classModels))
	for i := range classModels {
		classes[i] = *classModels[i].ToDomain()
	}
	return classes, nil
}

// CountForTenant counts classes for a tenant with filtering
func (r *GormCommunityClassRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CommunityClassModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the class and replaces its attendee set
func (r *GormCommunityClassRepository) Save(ctx context.Context, class *billing.CommunityClass) error {
	model := models.CommunityClassModelFromDomain(class)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", model.ID).Delete(&models.ClassAttendeeModel{}).Error; err != nil {
			return err
		}
		if len(model.Attendees) == 0 {
			return nil
		}
		return tx.Create(&model.Attendees).Error
	})
}

func (r *GormCommunityClassRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "name", "description")

	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if id, ok := filterUUID(filter, "instructor_id"); ok {
		query = query.Where("instructor_id = ?", id)
	}
	if t, ok := filterTime(filter, "scheduled_from"); ok {
		query = query.Where("scheduled_at >= ?", t)
	}
	if t, ok := filterTime(filter, "scheduled_to"); ok {
		query = query.Where("scheduled_at <= ?", t)
	}
	return query
}

// Ensure GormCommunityClassRepository implements CommunityClassRepository
var _ billing.CommunityClassRepository = (*GormCommunityClassRepository)(nil)
