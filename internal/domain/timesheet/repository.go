package timesheet

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BillableEntry is an approved, uninvoiced entry ready for billing
type BillableEntry struct {
	Entry
	TimesheetNumber string
	ProviderID      uuid.UUID
}

// Repository defines persistence for timesheets and their entries.
// Filter keys: "provider_id", "status", "period_from", "period_to".
type Repository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Timesheet, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Timesheet, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// Save persists the header and replaces the entry set
	Save(ctx context.Context, ts *Timesheet) error
	// SaveWithLock is Save guarded by an optimistic version check
	SaveWithLock(ctx context.Context, ts *Timesheet) error
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
	// FindBillableEntries returns billable entries of approved timesheets for
	// a client whose service date falls in [from, to] and that are not invoiced
	FindBillableEntries(ctx context.Context, tenantID, clientID uuid.UUID, from, to time.Time) ([]BillableEntry, error)
	// SumApprovedMinutesByProvider totals approved minutes per provider for a period
	SumApprovedMinutesByProvider(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[uuid.UUID]int, error)
	// MarkEntriesInvoiced stamps the invoice on the given entries
	MarkEntriesInvoiced(ctx context.Context, tenantID uuid.UUID, entryIDs []uuid.UUID, invoiceID uuid.UUID) error
	// ReleaseInvoicedEntries clears the invoice stamp from all entries of an invoice
	ReleaseInvoicedEntries(ctx context.Context, tenantID, invoiceID uuid.UUID) error
}
