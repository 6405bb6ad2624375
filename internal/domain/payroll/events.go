package payroll

import (
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypePayrollImport is the aggregate type name
const AggregateTypePayrollImport = "PayrollImport"

// Payroll event types
const (
	EventTypePayrollImported  = "payroll.imported"
	EventTypePayrollProcessed = "payroll.processed"
)

// PayrollEvent summarises an import at a point in its lifecycle
type PayrollEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	Status     ImportStatus    `json:"status"`
	ValidRows  int             `json:"valid_rows"`
	ErrorRows  int             `json:"error_rows"`
	TotalHours decimal.Decimal `json:"total_hours"`
	TotalPay   decimal.Decimal `json:"total_pay"`
}

// NewPayrollEvent builds an event from the import's current state
func NewPayrollEvent(eventType string, p *PayrollImport) *PayrollEvent {
	return &PayrollEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePayrollImport, p.ID, p.TenantID),
		Number:          p.Number,
		Status:          p.Status,
		ValidRows:       p.ValidRows,
		ErrorRows:       p.ErrorRows,
		TotalHours:      p.TotalHours,
		TotalPay:        p.TotalPay,
	}
}
