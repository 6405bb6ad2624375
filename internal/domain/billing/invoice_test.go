package billing

import (
	"testing"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftInvoice(t *testing.T) *Invoice {
	t.Helper()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	inv, err := NewInvoice(uuid.New(), "INV-202610-00001", uuid.New(), start, start.AddDate(0, 1, -1))
	require.NoError(t, err)
	return inv
}

func TestInvoice_AddLine(t *testing.T) {
	inv := newDraftInvoice(t)

	t.Run("from minutes", func(t *testing.T) {
		line, err := inv.AddLine(LineInput{Minutes: 100, Rate: decimal.RequireFromString("18.335")})
		require.NoError(t, err)
		assert.True(t, line.Units.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, "110.01", line.Amount.StringFixed(2))
	})

	t.Run("explicit units win", func(t *testing.T) {
		line, err := inv.AddLine(LineInput{Minutes: 15, Units: decimal.NewFromInt(2), Rate: decimal.NewFromInt(10)})
		require.NoError(t, err)
		assert.Equal(t, "20.00", line.Amount.StringFixed(2))
	})

	assert.Equal(t, "130.01", inv.TotalAmount.StringFixed(2))
	assert.True(t, inv.TotalUnits().Equal(decimal.NewFromInt(8)))

	t.Run("rejects zero rate", func(t *testing.T) {
		_, err := inv.AddLine(LineInput{Minutes: 60, Rate: decimal.Zero})
		assert.Error(t, err)
	})

	t.Run("rejects sub-unit minutes", func(t *testing.T) {
		_, err := inv.AddLine(LineInput{Minutes: 14, Rate: decimal.NewFromInt(10)})
		assert.Error(t, err)
	})

	t.Run("remove line", func(t *testing.T) {
		removed, err := inv.RemoveLine(inv.Entries[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "20.00", removed.Amount.StringFixed(2))
		assert.Equal(t, "110.01", inv.TotalAmount.StringFixed(2))
	})
}

func TestInvoice_Send(t *testing.T) {
	issue := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)

	t.Run("requires lines and recipient", func(t *testing.T) {
		inv := newDraftInvoice(t)
		assert.Error(t, inv.Send(issue, 30))
		_, err := inv.AddLine(LineInput{Minutes: 60, Rate: decimal.NewFromInt(10)})
		require.NoError(t, err)
		assert.Error(t, inv.Send(issue, 30))
	})

	t.Run("sets due date", func(t *testing.T) {
		inv := newDraftInvoice(t)
		_, err := inv.AddLine(LineInput{Minutes: 60, Rate: decimal.NewFromInt(10)})
		require.NoError(t, err)
		require.NoError(t, inv.SetBillTo(nil, "Payer", "Billing@Payer.com"))
		require.NoError(t, inv.Send(issue, 30))

		assert.Equal(t, InvoiceStatusSent, inv.Status)
		assert.Equal(t, "billing@payer.com", inv.BillToEmail)
		assert.Equal(t, issue.AddDate(0, 0, 30), *inv.DueDate)
		assert.True(t, inv.IsOverdue(issue.AddDate(0, 0, 31)))
		assert.False(t, inv.IsOverdue(issue))

		_, err = inv.AddLine(LineInput{Minutes: 60, Rate: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.ErrorIs(t, inv.Delete(), shared.ErrInvalidState)
	})
}

func sentInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv := newDraftInvoice(t)
	_, err := inv.AddLine(LineInput{Minutes: 60, Rate: decimal.NewFromInt(25)})
	require.NoError(t, err)
	require.NoError(t, inv.SetBillTo(nil, "", "a@b.co"))
	require.NoError(t, inv.Send(time.Now(), 30))
	return inv
}

func TestInvoice_RecordPayment(t *testing.T) {
	inv := sentInvoice(t)

	assert.Error(t, inv.RecordPayment(decimal.Zero))
	assert.Error(t, inv.RecordPayment(decimal.NewFromInt(101)))

	require.NoError(t, inv.RecordPayment(decimal.NewFromInt(40)))
	assert.Equal(t, InvoiceStatusSent, inv.Status)
	assert.Equal(t, "60.00", inv.OutstandingAmount().StringFixed(2))

	require.NoError(t, inv.RecordPayment(decimal.NewFromInt(60)))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.NotNil(t, inv.PaidAt)

	assert.ErrorIs(t, inv.RecordPayment(decimal.NewFromInt(1)), shared.ErrInvalidState)
	assert.ErrorIs(t, inv.Void("late"), shared.ErrInvalidState)
}

func TestInvoice_Void(t *testing.T) {
	t.Run("draft can be voided with reason", func(t *testing.T) {
		inv := newDraftInvoice(t)
		assert.Error(t, inv.Void(""))
		require.NoError(t, inv.Void("duplicate"))
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
		assert.True(t, inv.Status.IsTerminal())
	})

	t.Run("partially paid sent invoice keeps its payment", func(t *testing.T) {
		inv := sentInvoice(t)
		require.NoError(t, inv.RecordPayment(decimal.NewFromInt(10)))
		require.NoError(t, inv.Void("billed wrong client, $10 refunded"))
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(10)))
	})

	t.Run("paid invoice is terminal", func(t *testing.T) {
		inv := sentInvoice(t)
		require.NoError(t, inv.RecordPayment(inv.OutstandingAmount()))
		assert.ErrorIs(t, inv.Void("too late"), shared.ErrInvalidState)
	})
}

func TestInvoice_TimesheetEntryIDs(t *testing.T) {
	inv := newDraftInvoice(t)
	src := uuid.New()
	_, err := inv.AddLine(LineInput{TimesheetEntryID: &src, Minutes: 30, Rate: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = inv.AddLine(LineInput{Units: decimal.NewFromInt(1), Rate: decimal.NewFromInt(5)})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{src}, inv.TimesheetEntryIDs())
}
