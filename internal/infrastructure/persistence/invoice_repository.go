package persistence

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx returns a new repository instance bound to the transaction
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: tx}
}

func preloadInvoiceEntries(db *gorm.DB) *gorm.DB {
	return db.Order("invoice_entries.service_date ASC, invoice_entries.created_at ASC")
}

// FindByIDForTenant finds an invoice by ID for a specific tenant, lines included
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Entries", preloadInvoiceEntries).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an invoice by number for a specific tenant
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Entries", preloadInvoiceEntries).
		Where("tenant_id = ? AND number = ?", tenantID, number).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, invoiceSortColumns, "created_at")

	if err := query.Preload("Entries", preloadInvoiceEntries).Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// CountForTenant counts invoices for a tenant with filtering
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the header and replaces the line set
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations, "document_id").Save(model).Error; err != nil {
			return err
		}
		return replaceInvoiceEntries(tx, model)
	})
}

// SaveWithLock is Save guarded by the version column
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, invoice.ID, invoice.Version, "Invoice", "document_id"); err != nil {
			return err
		}
		return replaceInvoiceEntries(tx, model)
	})
}

func replaceInvoiceEntries(tx *gorm.DB, model *models.InvoiceModel) error {
	if err := tx.Where("invoice_id = ?", model.ID).Delete(&models.InvoiceEntryModel{}).Error; err != nil {
		return err
	}
	if len(model.Entries) == 0 {
		return nil
	}
	return tx.Create(&model.Entries).Error
}

// AttachDocument links a generated PDF to the invoice without touching the
// rest of the row
func (r *GormInvoiceRepository) AttachDocument(ctx context.Context, tenantID, id, documentID uuid.UUID) error {
	return attachDocument(r.db.WithContext(ctx), &models.InvoiceModel{}, tenantID, id, documentID)
}

// GenerateNumber generates the next invoice number, e.g. INV-202610-00001
func (r *GormInvoiceRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), &models.InvoiceModel{}, tenantID, "INV", time.Now())
}

func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "number", "bill_to_name", "bill_to_email")

	if id, ok := filterUUID(filter, "client_id"); ok {
		query = query.Where("client_id = ?", id)
	}
	if id, ok := filterUUID(filter, "insurance_id"); ok {
		query = query.Where("insurance_id = ?", id)
	}
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if t, ok := filterTime(filter, "issue_from"); ok {
		query = query.Where("issue_date >= ?", t)
	}
	if t, ok := filterTime(filter, "issue_to"); ok {
		query = query.Where("issue_date <= ?", t)
	}
	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
