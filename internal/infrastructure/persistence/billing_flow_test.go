package persistence

import (
	"context"
	"testing"
	"time"

	domainbilling "github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billableEntry(t *testing.T, ts *timesheet.Timesheet) timesheet.Entry {
	t.Helper()
	for _, e := range ts.Entries {
		if e.Billable {
			return e
		}
	}
	t.Fatal("timesheet has no billable entry")
	return timesheet.Entry{}
}

// invoiceForEntry saves a draft invoice billing one timesheet entry
func invoiceForEntry(t *testing.T, repo *GormInvoiceRepository, tenantID, clientID uuid.UUID, entry timesheet.Entry) *domainbilling.Invoice {
	t.Helper()
	ctx := context.Background()

	number, err := repo.GenerateNumber(ctx, tenantID)
	require.NoError(t, err)
	inv, err := domainbilling.NewInvoice(tenantID, number, clientID, octDay(1), octDay(31))
	require.NoError(t, err)
	require.NoError(t, inv.SetBillTo(nil, "Jane Doe", "jane@example.com"))
	_, err = inv.AddLine(domainbilling.LineInput{
		TimesheetEntryID: &entry.ID,
		ServiceDate:      entry.ServiceDate,
		ServiceCode:      entry.ServiceCode,
		Minutes:          entry.Minutes,
		Rate:             decimal.NewFromFloat(12.5),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, inv))
	return inv
}

func entryByID(t *testing.T, ts *timesheet.Timesheet, id uuid.UUID) timesheet.Entry {
	t.Helper()
	for _, e := range ts.Entries {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("entry %s not found", id)
	return timesheet.Entry{}
}

func TestBillingFlow_VoidedInvoiceLetsTimesheetBeCorrected(t *testing.T) {
	db := newSQLiteBillingDB(t)
	ctx := context.Background()
	timesheets := NewGormTimesheetRepository(db)
	invoices := NewGormInvoiceRepository(db)
	tenantID, providerID, clientID := uuid.New(), uuid.New(), uuid.New()

	ts := approvedTimesheet(t, timesheets, tenantID, providerID, clientID)
	billed := billableEntry(t, ts)
	inv := invoiceForEntry(t, invoices, tenantID, clientID, billed)
	require.NoError(t, timesheets.MarkEntriesInvoiced(ctx, tenantID, inv.TimesheetEntryIDs(), inv.ID))

	require.NoError(t, inv.Send(octDay(31), 30))
	require.NoError(t, invoices.SaveWithLock(ctx, inv))
	require.NoError(t, inv.Void("wrong billing period"))
	require.NoError(t, invoices.SaveWithLock(ctx, inv))
	require.NoError(t, timesheets.ReleaseInvoicedEntries(ctx, tenantID, inv.ID))

	sheet, err := timesheets.FindByIDForTenant(ctx, tenantID, ts.ID)
	require.NoError(t, err)
	require.NoError(t, sheet.Reopen())
	require.NoError(t, timesheets.SaveWithLock(ctx, sheet))

	_, err = sheet.UpdateEntry(billed.ID, timesheet.EntryInput{
		ClientID:    clientID,
		ServiceDate: billed.ServiceDate,
		ServiceCode: billed.ServiceCode,
		Minutes:     45,
		Billable:    true,
	})
	require.NoError(t, err)
	require.NoError(t, timesheets.SaveWithLock(ctx, sheet))

	reloaded, err := timesheets.FindByIDForTenant(ctx, tenantID, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusDraft, reloaded.Status)
	require.Len(t, reloaded.Entries, 2)
	corrected := entryByID(t, reloaded, billed.ID)
	assert.Equal(t, 45, corrected.Minutes)
	assert.Nil(t, corrected.InvoiceID)

	voided, err := invoices.FindByIDForTenant(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{billed.ID}, voided.TimesheetEntryIDs(), "voided invoice keeps its lines")

	t.Run("released entries can be removed", func(t *testing.T) {
		var other uuid.UUID
		for _, e := range reloaded.Entries {
			if e.ID != billed.ID {
				other = e.ID
			}
		}
		require.NoError(t, reloaded.RemoveEntry(other))
		require.NoError(t, timesheets.SaveWithLock(ctx, reloaded))

		after, err := timesheets.FindByIDForTenant(ctx, tenantID, ts.ID)
		require.NoError(t, err)
		require.Len(t, after.Entries, 1)
		assert.Equal(t, billed.ID, after.Entries[0].ID)
	})
}

func TestBillingFlow_TimesheetSaveKeepsInvoiceStamp(t *testing.T) {
	db := newSQLiteBillingDB(t)
	ctx := context.Background()
	timesheets := NewGormTimesheetRepository(db)
	invoices := NewGormInvoiceRepository(db)
	tenantID, clientID := uuid.New(), uuid.New()

	ts := approvedTimesheet(t, timesheets, tenantID, uuid.New(), clientID)
	billed := billableEntry(t, ts)

	stale, err := timesheets.FindByIDForTenant(ctx, tenantID, ts.ID)
	require.NoError(t, err)

	inv := invoiceForEntry(t, invoices, tenantID, clientID, billed)
	require.NoError(t, timesheets.MarkEntriesInvoiced(ctx, tenantID, []uuid.UUID{billed.ID}, inv.ID))

	stale.Notes = "late note"
	require.NoError(t, timesheets.Save(ctx, stale))

	reloaded, err := timesheets.FindByIDForTenant(ctx, tenantID, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, "late note", reloaded.Notes)
	stamped := entryByID(t, reloaded, billed.ID)
	require.NotNil(t, stamped.InvoiceID, "a copy loaded before invoicing must not clear the stamp")
	assert.Equal(t, inv.ID, *stamped.InvoiceID)

	t.Run("invoiced entries cannot be dropped", func(t *testing.T) {
		kept := make([]timesheet.Entry, 0, 1)
		for _, e := range reloaded.Entries {
			if e.ID != billed.ID {
				kept = append(kept, e)
			}
		}
		reloaded.Entries = kept

		err := timesheets.Save(ctx, reloaded)
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		after, err := timesheets.FindByIDForTenant(ctx, tenantID, ts.ID)
		require.NoError(t, err)
		assert.Len(t, after.Entries, 2)
		assert.Equal(t, "late note", after.Notes)
	})
}

func TestGormInvoiceRepository_AttachDocument(t *testing.T) {
	db := newSQLiteBillingDB(t)
	ctx := context.Background()
	timesheets := NewGormTimesheetRepository(db)
	invoices := NewGormInvoiceRepository(db)
	tenantID, clientID := uuid.New(), uuid.New()

	ts := approvedTimesheet(t, timesheets, tenantID, uuid.New(), clientID)
	inv := invoiceForEntry(t, invoices, tenantID, clientID, billableEntry(t, ts))
	require.NoError(t, inv.Send(octDay(31), 30))
	require.NoError(t, invoices.SaveWithLock(ctx, inv))

	t.Run("payment made while rendering survives the attach", func(t *testing.T) {
		rendering, err := invoices.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		paying, err := invoices.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)

		require.NoError(t, paying.RecordPayment(decimal.NewFromInt(10)))
		require.NoError(t, invoices.SaveWithLock(ctx, paying))

		docID := uuid.New()
		require.NoError(t, invoices.AttachDocument(ctx, tenantID, rendering.ID, docID))

		reloaded, err := invoices.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.PaidAmount.Equal(decimal.NewFromInt(10)))
		require.NotNil(t, reloaded.DocumentID)
		assert.Equal(t, docID, *reloaded.DocumentID)
		assert.Len(t, reloaded.Entries, 1)
	})

	t.Run("saves never clear the document link", func(t *testing.T) {
		loaded, err := invoices.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		loaded.DocumentID = nil
		require.NoError(t, loaded.RecordPayment(decimal.NewFromInt(5)))
		require.NoError(t, invoices.SaveWithLock(ctx, loaded))

		reloaded, err := invoices.FindByIDForTenant(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.NotNil(t, reloaded.DocumentID)
		assert.True(t, reloaded.PaidAmount.Equal(decimal.NewFromInt(15)))
	})

	t.Run("unknown invoice", func(t *testing.T) {
		err := invoices.AttachDocument(ctx, tenantID, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		err = invoices.AttachDocument(ctx, uuid.New(), inv.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound, "other tenants cannot attach")
	})
}

func TestGormCommunityInvoiceRepository_AttachDocument(t *testing.T) {
	db := newSQLiteBillingDB(t)
	ctx := context.Background()
	classes := NewGormCommunityClassRepository(db)
	invoices := NewGormCommunityInvoiceRepository(db)
	tenantID, clientID := uuid.New(), uuid.New()

	class, err := domainbilling.NewCommunityClass(tenantID, domainbilling.ClassDetails{
		Name:          "Safe lifting",
		ScheduledAt:   time.Date(2026, time.October, 21, 15, 0, 0, 0, time.UTC),
		DurationHours: decimal.NewFromInt(1),
		RatePerUnit:   decimal.NewFromInt(8),
		Capacity:      5,
	})
	require.NoError(t, err)
	require.NoError(t, class.Enroll(clientID))
	require.NoError(t, class.Complete())
	require.NoError(t, classes.Save(ctx, class))

	number, err := invoices.GenerateNumber(ctx, tenantID)
	require.NoError(t, err)
	ci, err := domainbilling.NewCommunityInvoice(number, class, clientID)
	require.NoError(t, err)
	require.NoError(t, invoices.Save(ctx, ci))

	stale, err := invoices.FindByIDForTenant(ctx, tenantID, ci.ID)
	require.NoError(t, err)

	docID := uuid.New()
	require.NoError(t, invoices.AttachDocument(ctx, tenantID, ci.ID, docID))

	require.NoError(t, stale.SetBillToEmail("parent@example.com"))
	require.NoError(t, invoices.Save(ctx, stale))

	reloaded, err := invoices.FindByIDForTenant(ctx, tenantID, ci.ID)
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", reloaded.BillToEmail)
	require.NotNil(t, reloaded.DocumentID)
	assert.Equal(t, docID, *reloaded.DocumentID)

	assert.ErrorIs(t, invoices.AttachDocument(ctx, tenantID, uuid.New(), docID), shared.ErrNotFound)
}
