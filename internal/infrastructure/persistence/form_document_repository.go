package persistence

import (
	"context"

	"github.com/carehours/backend/internal/domain/document"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFormDocumentRepository implements document.Repository using GORM
type GormFormDocumentRepository struct {
	db *gorm.DB
}

// NewGormFormDocumentRepository creates a new GormFormDocumentRepository
func NewGormFormDocumentRepository(db *gorm.DB) *GormFormDocumentRepository {
	return &GormFormDocumentRepository{db: db}
}

// FindByIDForTenant finds a document by ID for a specific tenant
func (r *GormFormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*document.FormDocument, error) {
	var model models.FormDocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all documents for a tenant with filtering
func (r *GormFormDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]document.FormDocument, error) {
	var docModels []models.FormDocumentModel
	query := r.db.WithContext(ctx).Model(&models.FormDocumentModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, formDocumentSortColumns, "created_at")

	if err := query.Find(&docModels).Error; err != nil {
		return nil, err
	}
	docs := make([]document.FormDocument, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs, nil
}

// CountForTenant counts documents for a tenant with filtering
func (r *GormFormDocumentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.FormDocumentModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a document
func (r *GormFormDocumentRepository) Save(ctx context.Context, doc *document.FormDocument) error {
	return r.db.WithContext(ctx).Save(models.FormDocumentModelFromDomain(doc)).Error
}

func (r *GormFormDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "title", "file_name")

	if v, ok := filterString(filter, "kind"); ok {
		query = query.Where("kind = ?", v)
	}
	if id, ok := filterUUID(filter, "owner_id"); ok {
		query = query.Where("owner_id = ?", id)
	}
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	return query
}

// Ensure GormFormDocumentRepository implements document.Repository
var _ document.Repository = (*GormFormDocumentRepository)(nil)
