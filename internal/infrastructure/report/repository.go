// Package report implements report read models with hand-written SQL over sqlx.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carehours/backend/internal/domain/billing"
	domainreport "github.com/carehours/backend/internal/domain/report"
	"github.com/carehours/backend/internal/domain/shared/valueobject"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var _ domainreport.Repository = (*SQLRepository)(nil)

// SQLRepository answers report queries against the application database
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository wraps an open database. driver is the configured database
// driver ("postgres" or "sqlite") and selects the placeholder style.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	name := "postgres"
	if driver == "sqlite" || driver == "sqlite3" {
		name = "sqlite3"
	}
	return &SQLRepository{db: sqlx.NewDb(db, name)}
}

const unbilledUnitsQuery = `
SELECT e.client_id AS client_id,
       COALESCE(c.first_name || ' ' || c.last_name, '') AS client_name,
       COUNT(*) AS entry_count,
       COALESCE(SUM(e.minutes), 0) AS minutes,
       COALESCE(SUM(e.units), 0) AS units
FROM timesheet_entries e
JOIN timesheets t ON t.id = e.timesheet_id AND t.deleted_at IS NULL
LEFT JOIN clients c ON c.id = e.client_id
WHERE e.tenant_id = ?
  AND t.status = ?
  AND e.billable = ?
  AND e.invoice_id IS NULL
  AND e.service_date BETWEEN ? AND ?
GROUP BY e.client_id, c.first_name, c.last_name
ORDER BY units DESC, client_name`

// UnbilledUnits returns approved billable units not yet invoiced, per client
func (r *SQLRepository) UnbilledUnits(ctx context.Context, f domainreport.PeriodFilter) ([]domainreport.UnbilledUnits, error) {
	rows := []domainreport.UnbilledUnits{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(unbilledUnitsQuery),
		f.TenantID, timesheet.StatusApproved, true, f.From, f.To)
	if err != nil {
		return nil, fmt.Errorf("unbilled units: %w", err)
	}
	return rows, nil
}

const providerHoursQuery = `
SELECT t.provider_id AS provider_id,
       COALESCE(p.first_name || ' ' || p.last_name, '') AS provider_name,
       COUNT(DISTINCT t.id) AS timesheet_count,
       COALESCE(SUM(e.minutes), 0) AS total_minutes,
       COALESCE(SUM(CASE WHEN e.billable THEN e.minutes ELSE 0 END), 0) AS billable_minutes
FROM timesheets t
JOIN timesheet_entries e ON e.timesheet_id = t.id
LEFT JOIN providers p ON p.id = t.provider_id
WHERE t.tenant_id = ?
  AND t.deleted_at IS NULL
  AND t.status = ?
  AND e.service_date BETWEEN ? AND ?
GROUP BY t.provider_id, p.first_name, p.last_name
ORDER BY provider_name`

// ProviderHours returns approved hours per provider
func (r *SQLRepository) ProviderHours(ctx context.Context, f domainreport.PeriodFilter) ([]domainreport.ProviderHours, error) {
	rows := []domainreport.ProviderHours{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(providerHoursQuery),
		f.TenantID, timesheet.StatusApproved, f.From, f.To)
	if err != nil {
		return nil, fmt.Errorf("provider hours: %w", err)
	}
	for i := range rows {
		rows[i].Hours = valueobject.HoursFromMinutes(int(rows[i].TotalMinutes))
		rows[i].BillableHours = valueobject.HoursFromMinutes(int(rows[i].BillableMinutes))
	}
	return rows, nil
}

const openReceivablesQuery = `
SELECT due_date, total_amount - paid_amount AS outstanding
FROM invoices
WHERE tenant_id = ? AND status = ? AND deleted_at IS NULL
UNION ALL
SELECT due_date, amount - paid_amount AS outstanding
FROM community_invoices
WHERE tenant_id = ? AND status = ? AND deleted_at IS NULL`

type receivable struct {
	DueDate     *time.Time      `db:"due_date"`
	Outstanding decimal.Decimal `db:"outstanding"`
}

// ReceivablesAging buckets the balance of sent invoices by days past due
func (r *SQLRepository) ReceivablesAging(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*domainreport.AgingReport, error) {
	var open []receivable
	err := r.db.SelectContext(ctx, &open, r.db.Rebind(openReceivablesQuery),
		tenantID, billing.InvoiceStatusSent, tenantID, billing.InvoiceStatusSent)
	if err != nil {
		return nil, fmt.Errorf("receivables aging: %w", err)
	}
	return buildAging(open, asOf), nil
}

func buildAging(open []receivable, asOf time.Time) *domainreport.AgingReport {
	buckets := domainreport.AgingBuckets()
	index := make(map[domainreport.AgingBucket]int, len(buckets))
	rep := &domainreport.AgingReport{AsOf: asOf, Rows: make([]domainreport.AgingRow, len(buckets)), TotalOutstanding: decimal.Zero}
	for i, b := range buckets {
		index[b] = i
		rep.Rows[i] = domainreport.AgingRow{Bucket: b, Outstanding: decimal.Zero}
	}

	for _, rec := range open {
		if !rec.Outstanding.IsPositive() {
			continue
		}
		bucket := domainreport.AgingCurrent
		if rec.DueDate != nil {
			bucket = domainreport.BucketFor(*rec.DueDate, asOf)
		}
		row := &rep.Rows[index[bucket]]
		row.InvoiceCount++
		row.Outstanding = row.Outstanding.Add(rec.Outstanding)
		rep.TotalOutstanding = rep.TotalOutstanding.Add(rec.Outstanding)
	}
	return rep
}
