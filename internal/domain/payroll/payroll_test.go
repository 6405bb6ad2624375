package payroll

import (
	"testing"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImport(t *testing.T) *PayrollImport {
	t.Helper()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	imp, err := NewPayrollImport(uuid.New(), "PR-202610-00001", "october.csv", start, start.AddDate(0, 0, 14))
	require.NoError(t, err)
	return imp
}

func TestPayrollImport_Validation(t *testing.T) {
	t.Run("all rows failing marks import failed", func(t *testing.T) {
		imp := newImport(t)
		imp.AddErrorRow(2, "nobody@example.com", "provider not found")
		require.NoError(t, imp.FinishValidation())
		assert.Equal(t, ImportStatusFailed, imp.Status)
		assert.Equal(t, 1, imp.ErrorRows)
		assert.ErrorIs(t, imp.Process(uuid.New()), shared.ErrInvalidState)
	})

	t.Run("valid rows are totalled", func(t *testing.T) {
		imp := newImport(t)
		p := uuid.New()
		imp.AddValidRow(2, "a@x.co", p, imp.PeriodStart, decimal.RequireFromString("7.5"), decimal.RequireFromString("22.10"), "")
		imp.AddValidRow(3, "a@x.co", p, imp.PeriodStart, decimal.RequireFromString("0.25"), decimal.RequireFromString("22.10"), "")
		imp.AddErrorRow(4, "b@x.co", "hours must be between 0 and 24")

		require.NoError(t, imp.FinishValidation())
		assert.Equal(t, ImportStatusValidated, imp.Status)
		assert.Equal(t, 3, imp.TotalRows)
		assert.Equal(t, 2, imp.ValidRows)
		assert.Equal(t, "7.75", imp.TotalHours.StringFixed(2))
		assert.Equal(t, "171.28", imp.TotalPay.StringFixed(2))

		assert.Error(t, imp.FinishValidation())

		by := uuid.New()
		require.NoError(t, imp.Process(by))
		assert.Equal(t, ImportStatusProcessed, imp.Status)
		assert.Equal(t, RowStatusProcessed, imp.Rows[0].Status)
		assert.Equal(t, RowStatusError, imp.Rows[2].Status)
		assert.Equal(t, by, *imp.ProcessedBy)
		assert.Error(t, imp.Delete())
	})
}

func TestReconcile(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	imported := map[uuid.UUID]decimal.Decimal{
		a: decimal.NewFromInt(10),
		b: decimal.RequireFromString("4.5"),
	}
	approved := map[uuid.UUID]int{
		a: 600,
		c: 90,
	}

	got := Reconcile(imported, approved)
	require.Len(t, got, 3)
	assert.Equal(t, b, got[0].ProviderID)
	assert.Equal(t, "4.50", got[0].Difference.StringFixed(2))
	assert.Equal(t, c, got[1].ProviderID)
	assert.Equal(t, "-1.50", got[1].Difference.StringFixed(2))
	assert.True(t, got[2].Difference.IsZero())
}
