// Package report holds read models for operational reports.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnbilledUnits is approved billable work not yet on an invoice, per client
type UnbilledUnits struct {
	ClientID   uuid.UUID `json:"client_id" db:"client_id"`
	ClientName string    `json:"client_name" db:"client_name"`
	EntryCount int64     `json:"entry_count" db:"entry_count"`
	Minutes    int64     `json:"minutes" db:"minutes"`
	Units      int64     `json:"units" db:"units"`
}

// ProviderHours totals approved time per provider
type ProviderHours struct {
	ProviderID      uuid.UUID       `json:"provider_id" db:"provider_id"`
	ProviderName    string          `json:"provider_name" db:"provider_name"`
	TimesheetCount  int64           `json:"timesheet_count" db:"timesheet_count"`
	TotalMinutes    int64           `json:"total_minutes" db:"total_minutes"`
	BillableMinutes int64           `json:"billable_minutes" db:"billable_minutes"`
	Hours           decimal.Decimal `json:"hours" db:"-"`
	BillableHours   decimal.Decimal `json:"billable_hours" db:"-"`
}

// AgingBucket names a days-past-due range
type AgingBucket string

const (
	AgingCurrent AgingBucket = "current"
	Aging0To30   AgingBucket = "0-30"
	Aging31To60  AgingBucket = "31-60"
	Aging61To90  AgingBucket = "61-90"
	AgingOver90  AgingBucket = "90+"
)

// AgingBuckets lists buckets in display order
func AgingBuckets() []AgingBucket {
	return []AgingBucket{AgingCurrent, Aging0To30, Aging31To60, Aging61To90, AgingOver90}
}

// BucketFor returns the bucket for an invoice due on dueDate as of asOf.
// Invoices not yet due are current; day 0 to 30 past due is 0-30.
func BucketFor(dueDate, asOf time.Time) AgingBucket {
	due := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(due) {
		return AgingCurrent
	}
	days := int(day.Sub(due).Hours() / 24)
	switch {
	case days <= 30:
		return Aging0To30
	case days <= 60:
		return Aging31To60
	case days <= 90:
		return Aging61To90
	}
	return AgingOver90
}

// AgingRow is the outstanding balance of one bucket
type AgingRow struct {
	Bucket       AgingBucket     `json:"bucket"`
	InvoiceCount int64           `json:"invoice_count"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

// AgingReport is accounts receivable aging as of a date
type AgingReport struct {
	AsOf             time.Time       `json:"as_of"`
	Rows             []AgingRow      `json:"rows"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// PeriodFilter bounds a report to service dates in [From, To]
type PeriodFilter struct {
	TenantID uuid.UUID
	From     time.Time
	To       time.Time
}

// Repository answers report queries
type Repository interface {
	UnbilledUnits(ctx context.Context, filter PeriodFilter) ([]UnbilledUnits, error)
	ProviderHours(ctx context.Context, filter PeriodFilter) ([]ProviderHours, error)
	ReceivablesAging(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*AgingReport, error)
}
