package payroll

import (
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportStatus represents the lifecycle of a payroll import
type ImportStatus string

const (
	ImportStatusUploaded  ImportStatus = "uploaded"
	ImportStatusValidated ImportStatus = "validated"
	ImportStatusProcessed ImportStatus = "processed"
	ImportStatusFailed    ImportStatus = "failed"
)

// IsValid checks if the status is a known value
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusUploaded, ImportStatusValidated, ImportStatusProcessed, ImportStatusFailed:
		return true
	}
	return false
}

// RowStatus represents the outcome of validating a single row
type RowStatus string

const (
	RowStatusValid     RowStatus = "valid"
	RowStatusError     RowStatus = "error"
	RowStatusProcessed RowStatus = "processed"
)

// MaxHoursPerRow bounds hours on one row
var MaxHoursPerRow = decimal.NewFromInt(24)

// PayrollImport is an uploaded batch of provider hours
type PayrollImport struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Number      string
	FileName    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      ImportStatus
	Rows        []PayrollRow
	TotalRows   int
	ValidRows   int
	ErrorRows   int
	TotalHours  decimal.Decimal
	TotalPay    decimal.Decimal
	ProcessedAt *time.Time
	ProcessedBy *uuid.UUID
}

// PayrollRow is one line of an import
type PayrollRow struct {
	ID          uuid.UUID
	ImportID    uuid.UUID
	RowNumber   int
	ProviderRef string
	ProviderID  *uuid.UUID
	WorkDate    *time.Time
	Hours       decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
	Memo        string
	Status      RowStatus
	Error       string
}

// NewPayrollImport creates an import for a period
func NewPayrollImport(tenantID uuid.UUID, number, fileName string, periodStart, periodEnd time.Time) (*PayrollImport, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Import number cannot be empty")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, shared.NewDomainError("INVALID_FILE", "File name cannot be empty")
	}
	if periodStart.IsZero() || periodEnd.IsZero() || periodStart.After(periodEnd) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "A valid payroll period is required")
	}
	return &PayrollImport{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		FileName:            fileName,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		Status:              ImportStatusUploaded,
		Rows:                make([]PayrollRow, 0),
		TotalHours:          decimal.Zero,
		TotalPay:            decimal.Zero,
	}, nil
}

// AddValidRow appends a row that passed validation
func (p *PayrollImport) AddValidRow(rowNumber int, ref string, providerID uuid.UUID, workDate time.Time, hours, rate decimal.Decimal, memo string) {
	p.Rows = append(p.Rows, PayrollRow{
		ID:          uuid.New(),
		ImportID:    p.ID,
		RowNumber:   rowNumber,
		ProviderRef: ref,
		ProviderID:  &providerID,
		WorkDate:    &workDate,
		Hours:       hours,
		Rate:        rate,
		Amount:      valueobject.RoundMoney(hours.Mul(rate)),
		Memo:        memo,
		Status:      RowStatusValid,
	})
}

// AddErrorRow appends a row that failed validation
func (p *PayrollImport) AddErrorRow(rowNumber int, ref, message string) {
	p.Rows = append(p.Rows, PayrollRow{
		ID:          uuid.New(),
		ImportID:    p.ID,
		RowNumber:   rowNumber,
		ProviderRef: ref,
		Hours:       decimal.Zero,
		Rate:        decimal.Zero,
		Amount:      decimal.Zero,
		Status:      RowStatusError,
		Error:       message,
	})
}

// FinishValidation computes counts and moves to validated or failed
func (p *PayrollImport) FinishValidation() error {
	if p.Status != ImportStatusUploaded {
		return shared.InvalidStatef("Cannot validate import in %s status", p.Status)
	}
	p.recalculate()
	if p.ValidRows > 0 {
		p.Status = ImportStatusValidated
	} else {
		p.Status = ImportStatusFailed
	}
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewPayrollEvent(EventTypePayrollImported, p))
	return nil
}

// Process marks every valid row as processed
func (p *PayrollImport) Process(processedBy uuid.UUID) error {
	if p.Status != ImportStatusValidated {
		return shared.InvalidStatef("Cannot process import in %s status", p.Status)
	}
	for i := range p.Rows {
		if p.Rows[i].Status == RowStatusValid {
			p.Rows[i].Status = RowStatusProcessed
		}
	}
	p.recalculate()

	now := time.Now()
	p.Status = ImportStatusProcessed
	p.ProcessedAt = &now
	if processedBy != uuid.Nil {
		p.ProcessedBy = &processedBy
	}
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewPayrollEvent(EventTypePayrollProcessed, p))
	return nil
}

// Delete soft-deletes an import that has not been processed
func (p *PayrollImport) Delete() error {
	if p.Status == ImportStatusProcessed {
		return shared.InvalidStatef("Cannot delete a processed import")
	}
	p.MarkDeleted()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// HoursByProvider sums hours of non-error rows per provider
func (p *PayrollImport) HoursByProvider() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, r := range p.Rows {
		if r.Status == RowStatusError || r.ProviderID == nil {
			continue
		}
		out[*r.ProviderID] = out[*r.ProviderID].Add(r.Hours)
	}
	return out
}

func (p *PayrollImport) recalculate() {
	p.TotalRows = len(p.Rows)
	p.ValidRows, p.ErrorRows = 0, 0
	hours, pay := decimal.Zero, decimal.Zero
	for _, r := range p.Rows {
		if r.Status == RowStatusError {
			p.ErrorRows++
			continue
		}
		p.ValidRows++
		hours = hours.Add(r.Hours)
		pay = pay.Add(r.Amount)
	}
	p.TotalHours = hours.Round(2)
	p.TotalPay = valueobject.RoundMoney(pay)
}
