package persistence

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCommunityInvoiceRepository implements CommunityInvoiceRepository using GORM
type GormCommunityInvoiceRepository struct {
	db *gorm.DB
}

// NewGormCommunityInvoiceRepository creates a new GormCommunityInvoiceRepository
func NewGormCommunityInvoiceRepository(db *gorm.DB) *GormCommunityInvoiceRepository {
	return &GormCommunityInvoiceRepository{db: db}
}

// FindByIDForTenant finds a community invoice by ID for a specific tenant
func (r *GormCommunityInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.CommunityInvoice, error) {
	var model models.CommunityInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all community invoices for a tenant with filtering
func (r *GormCommunityInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.CommunityInvoice, error) {
	var invoiceModels []models.CommunityInvoiceModel
	query := r.db.WithContext(ctx).Model(&models.CommunityInvoiceModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, communityInvoiceSortColumns, "created_at")

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.CommunityInvoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// CountForTenant counts community invoices for a tenant with filtering
func (r *GormCommunityInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CommunityInvoiceModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBilledClientIDs returns clients that already have a non-void invoice for the class
func (r *GormCommunityInvoiceRepository) FindBilledClientIDs(ctx context.Context, tenantID, classID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.CommunityInvoiceModel{}).
		Where("tenant_id = ? AND class_id = ? AND status <> ?", tenantID, classID, billing.InvoiceStatusVoid).
		Distinct().
		Pluck("client_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates a community invoice. document_id is written only
// by AttachDocument.
func (r *GormCommunityInvoiceRepository) Save(ctx context.Context, invoice *billing.CommunityInvoice) error {
	return r.db.WithContext(ctx).Omit("document_id").Save(models.CommunityInvoiceModelFromDomain(invoice)).Error
}

// AttachDocument links a generated PDF to the community invoice
func (r *GormCommunityInvoiceRepository) AttachDocument(ctx context.Context, tenantID, id, documentID uuid.UUID) error {
	return attachDocument(r.db.WithContext(ctx), &models.CommunityInvoiceModel{}, tenantID, id, documentID)
}

// GenerateNumber generates the next community invoice number, e.g. CI-202610-00001
func (r *GormCommunityInvoiceRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), &models.CommunityInvoiceModel{}, tenantID, "CI", time.Now())
}

func (r *GormCommunityInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "number", "bill_to_email")

	if id, ok := filterUUID(filter, "class_id"); ok {
		query = query.Where("class_id = ?", id)
	}
	if id, ok := filterUUID(filter, "client_id"); ok {
		query = query.Where("client_id = ?", id)
	}
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	return query
}

// Ensure GormCommunityInvoiceRepository implements CommunityInvoiceRepository
var _ billing.CommunityInvoiceRepository = (*GormCommunityInvoiceRepository)(nil)
