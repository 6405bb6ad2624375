package printing

import (
	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/payroll"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company is the letterhead printed on every document
type Company struct {
	Name    string
	Address string
}

// InvoiceView is the data of the invoice template
type InvoiceView struct {
	Company       Company
	Invoice       *billing.Invoice
	ClientName    string
	InsuranceName string
}

// CommunityInvoiceView is the data of the community_invoice template
type CommunityInvoiceView struct {
	Company    Company
	Invoice    *billing.CommunityInvoice
	Class      *billing.CommunityClass
	ClientName string
}

// TimesheetView is the data of the timesheet template
type TimesheetView struct {
	Company      Company
	Timesheet    *timesheet.Timesheet
	ProviderName string
	ClientNames  map[uuid.UUID]string
}

// ClientName looks up an entry's client, falling back to the ID
func (v TimesheetView) ClientName(id uuid.UUID) string {
	if name, ok := v.ClientNames[id]; ok {
		return name
	}
	return id.String()
}

// ProviderTotal is one line of the payroll summary
type ProviderTotal struct {
	Name   string
	Hours  decimal.Decimal
	Amount decimal.Decimal
}

// PayrollSummaryView is the data of the payroll_summary template
type PayrollSummaryView struct {
	Company   Company
	Import    *payroll.PayrollImport
	Providers []ProviderTotal
}
