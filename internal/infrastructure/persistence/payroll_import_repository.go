package persistence

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/domain/payroll"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPayrollImportRepository implements payroll.ImportRepository using GORM
type GormPayrollImportRepository struct {
	db *gorm.DB
}

// NewGormPayrollImportRepository creates a new GormPayrollImportRepository
func NewGormPayrollImportRepository(db *gorm.DB) *GormPayrollImportRepository {
	return &GormPayrollImportRepository{db: db}
}

func preloadPayrollRows(db *gorm.DB) *gorm.DB {
	return db.Order("payroll_rows.row_number ASC")
}

// FindByIDForTenant finds an import by ID for a specific tenant, rows included
func (r *GormPayrollImportRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payroll.PayrollImport, error) {
	var model models.PayrollImportModel
	if err := r.db.WithContext(ctx).
		Preload("Rows", preloadPayrollRows).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists imports for a tenant without their rows
func (r *GormPayrollImportRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]payroll.PayrollImport, error) {
	var importModels []models.PayrollImportModel
	query := r.db.WithContext(ctx).Model(&models.PayrollImportModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, payrollImportSortColumns, "created_at")

	if err := query.Find(&importModels).Error; err != nil {
		return nil, err
	}
	imports := make([]payroll.PayrollImport, len(importModels))
	for i := range importModels {
		imports[i] = *importModels[i].ToDomain()
	}
	return imports, nil
}

// CountForTenant counts imports for a tenant with filtering
func (r *GormPayrollImportRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PayrollImportModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the import and replaces its rows
func (r *GormPayrollImportRepository) Save(ctx context.Context, imp *payroll.PayrollImport) error {
	model := models.PayrollImportModelFromDomain(imp)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return replacePayrollRows(tx, model)
	})
}

// SaveWithLock is Save guarded by the version column
func (r *GormPayrollImportRepository) SaveWithLock(ctx context.Context, imp *payroll.PayrollImport) error {
	model := models.PayrollImportModelFromDomain(imp)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, imp.ID, imp.Version, "Payroll import"); err != nil {
			return err
		}
		return replacePayrollRows(tx, model)
	})
}

// payrollRowBatchSize keeps multi-row inserts under the postgres bind limit
const payrollRowBatchSize = 500

func replacePayrollRows(tx *gorm.DB, model *models.PayrollImportModel) error {
	if err := tx.Where("import_id = ?", model.ID).Delete(&models.PayrollRowModel{}).Error; err != nil {
		return err
	}
	if len(model.Rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(&model.Rows, payrollRowBatchSize).Error
}

// GenerateNumber generates the next import number, e.g. PR-202610-00001
func (r *GormPayrollImportRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), &models.PayrollImportModel{}, tenantID, "PR", time.Now())
}

func (r *GormPayrollImportRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "number", "file_name")
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	return query
}

// Ensure GormPayrollImportRepository implements payroll.ImportRepository
var _ payroll.ImportRepository = (*GormPayrollImportRepository)(nil)
