package payroll

import (
	"sort"

	"github.com/carehours/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variance compares imported payroll hours with approved timesheet hours
type Variance struct {
	ProviderID     uuid.UUID
	ImportedHours  decimal.Decimal
	TimesheetHours decimal.Decimal
	Difference     decimal.Decimal
}

// Reconcile pairs imported hours with approved minutes per provider.
// Providers present on only one side appear with zero on the other.
// Results are sorted by absolute difference, largest first.
func Reconcile(imported map[uuid.UUID]decimal.Decimal, approvedMinutes map[uuid.UUID]int) []Variance {
	ids := make(map[uuid.UUID]struct{}, len(imported)+len(approvedMinutes))
	for id := range imported {
		ids[id] = struct{}{}
	}
	for id := range approvedMinutes {
		ids[id] = struct{}{}
	}

	out := make([]Variance, 0, len(ids))
	for id := range ids {
		imp := imported[id]
		ts := valueobject.HoursFromMinutes(approvedMinutes[id])
		out = append(out, Variance{
			ProviderID:     id,
			ImportedHours:  imp,
			TimesheetHours: ts,
			Difference:     imp.Sub(ts),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Difference.Abs(), out[j].Difference.Abs()
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return out[i].ProviderID.String() < out[j].ProviderID.String()
	})
	return out
}
