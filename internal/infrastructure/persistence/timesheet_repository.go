package persistence

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTimesheetRepository implements timesheet.Repository using GORM
type GormTimesheetRepository struct {
	db *gorm.DB
}

// NewGormTimesheetRepository creates a new GormTimesheetRepository
func NewGormTimesheetRepository(db *gorm.DB) *GormTimesheetRepository {
	return &GormTimesheetRepository{db: db}
}

// WithTx returns a new repository instance bound to the transaction
func (r *GormTimesheetRepository) WithTx(tx *gorm.DB) *GormTimesheetRepository {
	return &GormTimesheetRepository{db: tx}
}

func preloadTimesheetEntries(db *gorm.DB) *gorm.DB {
	return db.Order("timesheet_entries.service_date ASC, timesheet_entries.created_at ASC")
}

// FindByIDForTenant finds a timesheet by ID for a specific tenant, entries included
func (r *GormTimesheetRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*timesheet.Timesheet, error) {
	var model models.TimesheetModel
	if err := r.db.WithContext(ctx).
		Preload("Entries", preloadTimesheetEntries).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all timesheets for a tenant with filtering
func (r *GormTimesheetRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]timesheet.Timesheet, error) {
	var timesheetModels []models.TimesheetModel
	query := r.db.WithContext(ctx).Model(&models.TimesheetModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, timesheetSortColumns, "period_start")

	if err := query.Preload("Entries", preloadTimesheetEntries).Find(&timesheetModels).Error; err != nil {
		return nil, err
	}
	sheets := make([]timesheet.Timesheet, len(timesheetModels))
	for i := range timesheetModels {
		sheets[i] = *timesheetModels[i].ToDomain()
	}
	return sheets, nil
}

// CountForTenant counts timesheets for a tenant with filtering
func (r *GormTimesheetRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.TimesheetModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the header and syncs the entry set
func (r *GormTimesheetRepository) Save(ctx context.Context, ts *timesheet.Timesheet) error {
	model := models.TimesheetModelFromDomain(ts)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return syncTimesheetEntries(tx, model)
	})
}

// SaveWithLock is Save guarded by the version column
func (r *GormTimesheetRepository) SaveWithLock(ctx context.Context, ts *timesheet.Timesheet) error {
	model := models.TimesheetModelFromDomain(ts)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, ts.ID, ts.Version, "Timesheet"); err != nil {
			return err
		}
		return syncTimesheetEntries(tx, model)
	})
}

// timesheetEntryColumns are the entry columns a timesheet save may change.
// invoice_id belongs to MarkEntriesInvoiced and ReleaseInvoicedEntries.
var timesheetEntryColumns = []string{
	"client_id", "service_date", "service_code", "minutes", "units", "billable", "notes", "updated_at",
}

// syncTimesheetEntries upserts the entries by ID and deletes the ones the
// aggregate dropped. Invoiced rows are referenced by invoice lines and are
// never deleted.
func syncTimesheetEntries(tx *gorm.DB, model *models.TimesheetModel) error {
	keep := make([]uuid.UUID, len(model.Entries))
	for i := range model.Entries {
		keep[i] = model.Entries[i].ID
	}
	dropped := func(db *gorm.DB) *gorm.DB {
		db = db.Where("timesheet_id = ?", model.ID)
		if len(keep) > 0 {
			db = db.Where("id NOT IN ?", keep)
		}
		return db
	}

	var invoiced int64
	if err := tx.Model(&models.TimesheetEntryModel{}).
		Scopes(dropped).
		Where("invoice_id IS NOT NULL").
		Count(&invoiced).Error; err != nil {
		return err
	}
	if invoiced > 0 {
		return shared.InvalidStatef("%d invoiced timesheet entries cannot be removed", invoiced)
	}
	if err := tx.Scopes(dropped).Delete(&models.TimesheetEntryModel{}).Error; err != nil {
		return err
	}

	if len(model.Entries) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(timesheetEntryColumns),
	}).Create(&model.Entries).Error
}

// GenerateNumber generates the next timesheet number, e.g. TS-202610-00001
func (r *GormTimesheetRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), &models.TimesheetModel{}, tenantID, "TS", time.Now())
}

// FindBillableEntries returns billable, uninvoiced entries of approved
// timesheets for a client within [from, to]
func (r *GormTimesheetRepository) FindBillableEntries(ctx context.Context, tenantID, clientID uuid.UUID, from, to time.Time) ([]timesheet.BillableEntry, error) {
	var rows []models.BillableEntryRow
	if err := r.db.WithContext(ctx).
		Table("timesheet_entries").
		Select("timesheet_entries.*, timesheets.number AS timesheet_number, timesheets.provider_id AS provider_id").
		Joins("JOIN timesheets ON timesheets.id = timesheet_entries.timesheet_id").
		Where("timesheet_entries.tenant_id = ? AND timesheet_entries.client_id = ?", tenantID, clientID).
		Where("timesheet_entries.billable = ? AND timesheet_entries.invoice_id IS NULL", true).
		Where("timesheet_entries.service_date >= ? AND timesheet_entries.service_date <= ?", from, to).
		Where("timesheets.status = ? AND timesheets.deleted_at IS NULL", timesheet.StatusApproved).
		Order("timesheet_entries.service_date ASC, timesheet_entries.created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]timesheet.BillableEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

type providerMinutesRow struct {
	ProviderID uuid.UUID
	Minutes    int
}

// SumApprovedMinutesByProvider totals approved minutes per provider for a period
func (r *GormTimesheetRepository) SumApprovedMinutesByProvider(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[uuid.UUID]int, error) {
	var rows []providerMinutesRow
	if err := r.db.WithContext(ctx).
		Table("timesheet_entries").
		Select("timesheets.provider_id AS provider_id, COALESCE(SUM(timesheet_entries.minutes), 0) AS minutes").
		Joins("JOIN timesheets ON timesheets.id = timesheet_entries.timesheet_id").
		Where("timesheets.tenant_id = ? AND timesheets.status = ? AND timesheets.deleted_at IS NULL", tenantID, timesheet.StatusApproved).
		Where("timesheet_entries.service_date >= ? AND timesheet_entries.service_date <= ?", from, to).
		Group("timesheets.provider_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		totals[row.ProviderID] = row.Minutes
	}
	return totals, nil
}

// MarkEntriesInvoiced stamps the invoice on entries that are still uninvoiced.
// Fewer updated rows than requested means another invoice claimed some of them.
func (r *GormTimesheetRepository) MarkEntriesInvoiced(ctx context.Context, tenantID uuid.UUID, entryIDs []uuid.UUID, invoiceID uuid.UUID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.TimesheetEntryModel{}).
		Where("tenant_id = ? AND id IN ? AND invoice_id IS NULL", tenantID, entryIDs).
		Updates(map[string]interface{}{
			"invoice_id": invoiceID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(entryIDs)) {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "Some timesheet entries have already been invoiced")
	}
	return nil
}

// ReleaseInvoicedEntries clears the invoice stamp from all entries of an invoice
func (r *GormTimesheetRepository) ReleaseInvoicedEntries(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TimesheetEntryModel{}).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Updates(map[string]interface{}{
			"invoice_id": nil,
			"updated_at": time.Now(),
		}).Error
}

func (r *GormTimesheetRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "number", "notes")

	if id, ok := filterUUID(filter, "provider_id"); ok {
		query = query.Where("provider_id = ?", id)
	}
	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if t, ok := filterTime(filter, "period_from"); ok {
		query = query.Where("period_end >= ?", t)
	}
	if t, ok := filterTime(filter, "period_to"); ok {
		query = query.Where("period_start <= ?", t)
	}
	return query
}

// Ensure GormTimesheetRepository implements timesheet.Repository
var _ timesheet.Repository = (*GormTimesheetRepository)(nil)
