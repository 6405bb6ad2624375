package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func octDay(d int) time.Time {
	return time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC)
}

// approvedTimesheet saves an approved timesheet with one billable and one
// non-billable entry for the client
func approvedTimesheet(t *testing.T, repo *GormTimesheetRepository, tenantID, providerID, clientID uuid.UUID) *timesheet.Timesheet {
	t.Helper()
	ctx := context.Background()

	number, err := repo.GenerateNumber(ctx, tenantID)
	require.NoError(t, err)
	ts, err := timesheet.NewTimesheet(tenantID, number, providerID, octDay(1), octDay(14))
	require.NoError(t, err)

	_, err = ts.AddEntry(timesheet.EntryInput{ClientID: clientID, ServiceDate: octDay(3), ServiceCode: "H2014", Minutes: 60, Billable: true})
	require.NoError(t, err)
	_, err = ts.AddEntry(timesheet.EntryInput{ClientID: clientID, ServiceDate: octDay(2), Minutes: 30, Billable: false})
	require.NoError(t, err)
	require.NoError(t, ts.Submit(uuid.New()))
	require.NoError(t, ts.Approve(uuid.New()))

	require.NoError(t, repo.Save(ctx, ts))
	return ts
}

func TestGormTimesheetRepository_SaveAndFind(t *testing.T) {
	repo := NewGormTimesheetRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID, providerID, clientID := uuid.New(), uuid.New(), uuid.New()

	saved := approvedTimesheet(t, repo, tenantID, providerID, clientID)

	found, err := repo.FindByIDForTenant(ctx, tenantID, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Number, found.Number)
	assert.Equal(t, timesheet.StatusApproved, found.Status)
	require.Len(t, found.Entries, 2)
	assert.True(t, found.Entries[0].ServiceDate.Before(found.Entries[1].ServiceDate), "entries ordered by service date")
	assert.Equal(t, 90, found.TotalMinutes)

	t.Run("other tenant cannot see it", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), saved.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("filters by provider and status", func(t *testing.T) {
		filter := shared.DefaultFilter().
			With("provider_id", providerID).
			With("status", string(timesheet.StatusApproved))
		list, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		count, err := repo.CountForTenant(ctx, tenantID, shared.DefaultFilter().With("status", "draft"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("soft deleted timesheets disappear", func(t *testing.T) {
		other := approvedTimesheet(t, repo, tenantID, providerID, clientID)
		other.MarkDeleted()
		require.NoError(t, repo.Save(ctx, other))

		_, err := repo.FindByIDForTenant(ctx, tenantID, other.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormTimesheetRepository_GenerateNumber(t *testing.T) {
	repo := NewGormTimesheetRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	prefix := shared.DocumentNumberPrefix("TS", time.Now())

	first, err := repo.GenerateNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, prefix+"00001", first)

	approvedTimesheet(t, repo, tenantID, uuid.New(), uuid.New())

	second, err := repo.GenerateNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, prefix+"00002", second)

	otherTenant, err := repo.GenerateNumber(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, prefix+"00001", otherTenant)
}

func TestGormTimesheetRepository_BillableEntries(t *testing.T) {
	repo := NewGormTimesheetRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID, providerID, clientID := uuid.New(), uuid.New(), uuid.New()
	ts := approvedTimesheet(t, repo, tenantID, providerID, clientID)

	entries, err := repo.FindBillableEntries(ctx, tenantID, clientID, octDay(1), octDay(31))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ts.Number, entries[0].TimesheetNumber)
	assert.Equal(t, providerID, entries[0].ProviderID)
	assert.Equal(t, 60, entries[0].Minutes)

	t.Run("date range excludes entries", func(t *testing.T) {
		none, err := repo.FindBillableEntries(ctx, tenantID, clientID, octDay(4), octDay(31))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	invoiceID := uuid.New()
	require.NoError(t, repo.MarkEntriesInvoiced(ctx, tenantID, []uuid.UUID{entries[0].ID}, invoiceID))

	t.Run("invoiced entries are no longer billable", func(t *testing.T) {
		none, err := repo.FindBillableEntries(ctx, tenantID, clientID, octDay(1), octDay(31))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("entries cannot be invoiced twice", func(t *testing.T) {
		err := repo.MarkEntriesInvoiced(ctx, tenantID, []uuid.UUID{entries[0].ID}, uuid.New())
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("released entries become billable again", func(t *testing.T) {
		require.NoError(t, repo.ReleaseInvoicedEntries(ctx, tenantID, invoiceID))
		again, err := repo.FindBillableEntries(ctx, tenantID, clientID, octDay(1), octDay(31))
		require.NoError(t, err)
		assert.Len(t, again, 1)
	})
}

func TestGormTimesheetRepository_SumApprovedMinutesByProvider(t *testing.T) {
	repo := NewGormTimesheetRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID, providerID := uuid.New(), uuid.New()

	approvedTimesheet(t, repo, tenantID, providerID, uuid.New())
	approvedTimesheet(t, repo, tenantID, providerID, uuid.New())

	totals, err := repo.SumApprovedMinutesByProvider(ctx, tenantID, octDay(1), octDay(31))
	require.NoError(t, err)
	assert.Equal(t, 180, totals[providerID])
}

func TestGormTimesheetRepository_SaveWithLock(t *testing.T) {
	repo := NewGormTimesheetRepository(newSQLiteDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	ts := approvedTimesheet(t, repo, tenantID, uuid.New(), uuid.New())

	current, err := repo.FindByIDForTenant(ctx, tenantID, ts.ID)
	require.NoError(t, err)
	stale, err := repo.FindByIDForTenant(ctx, tenantID, ts.ID)
	require.NoError(t, err)

	current.Notes = "checked"
	current.IncrementVersion()
	require.NoError(t, repo.SaveWithLock(ctx, current))

	stale.Notes = "lost update"
	stale.IncrementVersion()
	err = repo.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	reloaded, err := repo.FindByIDForTenant(ctx, tenantID, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, "checked", reloaded.Notes)
	assert.Len(t, reloaded.Entries, 2)
}

func TestGormTimesheetRepository_MarkEntriesInvoiced_Mock(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormTimesheetRepository(db)

	t.Run("no entries is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.MarkEntriesInvoiced(context.Background(), uuid.New(), nil, uuid.New()))
	})

	t.Run("database error is returned", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "timesheet_entries" SET`).
			WillReturnError(assert.AnError)

		err := repo.MarkEntriesInvoiced(context.Background(), uuid.New(), []uuid.UUID{uuid.New()}, uuid.New())
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
