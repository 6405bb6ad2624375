package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice bills a client for service units
type Invoice struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Number      string
	ClientID    uuid.UUID
	InsuranceID *uuid.UUID
	BillToName  string
	BillToEmail string
	PeriodStart time.Time
	PeriodEnd   time.Time
	IssueDate   *time.Time
	DueDate     *time.Time
	Status      InvoiceStatus
	Entries     []InvoiceEntry
	Subtotal    decimal.Decimal
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	SentAt      *time.Time
	PaidAt      *time.Time
	VoidedAt    *time.Time
	VoidReason  string
	Notes       string
	DocumentID  *uuid.UUID
}

// InvoiceEntry is one billed line
type InvoiceEntry struct {
	ID               uuid.UUID
	InvoiceID        uuid.UUID
	TimesheetEntryID *uuid.UUID
	ServiceDate      time.Time
	Description      string
	ServiceCode      string
	Minutes          int
	Units            decimal.Decimal
	Rate             decimal.Decimal
	Amount           decimal.Decimal
	CreatedAt        time.Time
}

// LineInput describes a line to add. Units take precedence over Minutes when set.
type LineInput struct {
	TimesheetEntryID *uuid.UUID
	ServiceDate      time.Time
	Description      string
	ServiceCode      string
	Minutes          int
	Units            decimal.Decimal
	Rate             decimal.Decimal
}

// NewInvoice creates a draft invoice for a client and period
func NewInvoice(tenantID uuid.UUID, number string, clientID uuid.UUID, periodStart, periodEnd time.Time) (*Invoice, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if periodStart.After(periodEnd) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period start cannot be after period end")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		ClientID:            clientID,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		Status:              InvoiceStatusDraft,
		Entries:             make([]InvoiceEntry, 0),
		Subtotal:            decimal.Zero,
		TotalAmount:         decimal.Zero,
		PaidAmount:          decimal.Zero,
	}
	inv.AddDomainEvent(NewInvoiceEvent(EventTypeInvoiceCreated, inv))
	return inv, nil
}

// SetBillTo sets the recipient of the invoice
func (i *Invoice) SetBillTo(insuranceID *uuid.UUID, name, email string) error {
	if i.Status != InvoiceStatusDraft {
		return shared.InvalidStatef("Cannot change recipient of invoice in %s status", i.Status)
	}
	i.InsuranceID = insuranceID
	i.BillToName = strings.TrimSpace(name)
	i.BillToEmail = strings.ToLower(strings.TrimSpace(email))
	i.Touch()
	return nil
}

// SetNotes updates free-form notes
func (i *Invoice) SetNotes(notes string) {
	i.Notes = notes
	i.Touch()
}

// AddLine appends a line while the invoice is a draft
func (i *Invoice) AddLine(input LineInput) (*InvoiceEntry, error) {
	if i.Status != InvoiceStatusDraft {
		return nil, shared.InvalidStatef("Cannot add lines to invoice in %s status", i.Status)
	}
	if input.Rate.IsNegative() || input.Rate.IsZero() {
		return nil, shared.NewDomainError("INVALID_RATE", "Rate must be positive")
	}

	units := input.Units
	if units.IsZero() {
		whole, err := valueobject.UnitsFromMinutes(input.Minutes)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_MINUTES", err.Error())
		}
		units = decimal.NewFromInt(int64(whole))
	}
	if !units.IsPositive() {
		return nil, shared.NewDomainError("INVALID_UNITS", "Line must bill at least one unit")
	}

	line := InvoiceEntry{
		ID:               uuid.New(),
		InvoiceID:        i.ID,
		TimesheetEntryID: input.TimesheetEntryID,
		ServiceDate:      input.ServiceDate,
		Description:      strings.TrimSpace(input.Description),
		ServiceCode:      strings.ToUpper(strings.TrimSpace(input.ServiceCode)),
		Minutes:          input.Minutes,
		Units:            units,
		Rate:             input.Rate,
		Amount:           valueobject.LineAmount(units, input.Rate),
		CreatedAt:        time.Now(),
	}
	i.Entries = append(i.Entries, line)
	i.recalculate()
	return &i.Entries[len(i.Entries)-1], nil
}

// RemoveLine drops a line while the invoice is a draft and returns it
func (i *Invoice) RemoveLine(lineID uuid.UUID) (*InvoiceEntry, error) {
	if i.Status != InvoiceStatusDraft {
		return nil, shared.InvalidStatef("Cannot remove lines from invoice in %s status", i.Status)
	}
	for idx := range i.Entries {
		if i.Entries[idx].ID == lineID {
			removed := i.Entries[idx]
			i.Entries = append(i.Entries[:idx], i.Entries[idx+1:]...)
			i.recalculate()
			return &removed, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "Invoice line not found")
}

// Send issues the invoice and fixes its due date
func (i *Invoice) Send(issueDate time.Time, paymentTermsDays int) error {
	if !i.Status.CanSend() {
		return shared.InvalidStatef("Cannot send invoice in %s status", i.Status)
	}
	if len(i.Entries) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot send an invoice without lines")
	}
	if i.BillToEmail == "" {
		return shared.NewDomainError("NO_RECIPIENT", "Invoice has no recipient email")
	}
	if paymentTermsDays < 0 {
		paymentTermsDays = 0
	}

	now := time.Now()
	due := issueDate.AddDate(0, 0, paymentTermsDays)
	i.Status = InvoiceStatusSent
	i.IssueDate = &issueDate
	i.DueDate = &due
	i.SentAt = &now
	i.Touch()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceEvent(EventTypeInvoiceSent, i))
	return nil
}

// RecordPayment applies a payment; the invoice becomes paid once fully covered
func (i *Invoice) RecordPayment(amount decimal.Decimal) error {
	if !i.Status.CanApplyPayment() {
		return shared.InvalidStatef("Cannot record payment on invoice in %s status", i.Status)
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	outstanding := i.OutstandingAmount()
	if amount.GreaterThan(outstanding) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", fmt.Sprintf("Payment amount %s exceeds outstanding amount %s", amount.StringFixed(2), outstanding.StringFixed(2)))
	}

	i.PaidAmount = valueobject.RoundMoney(i.PaidAmount.Add(amount))
	i.Touch()
	i.IncrementVersion()

	if i.PaidAmount.GreaterThanOrEqual(i.TotalAmount) {
		now := time.Now()
		i.Status = InvoiceStatusPaid
		i.PaidAt = &now
		i.AddDomainEvent(NewInvoiceEvent(EventTypeInvoicePaid, i))
		return nil
	}
	i.AddDomainEvent(NewInvoiceEvent(EventTypeInvoicePaymentRecorded, i))
	return nil
}

// Void cancels the invoice. Callers release the source timesheet entries.
// PaidAmount is kept on a partially paid invoice; the reason records the refund.
func (i *Invoice) Void(reason string) error {
	if !i.Status.CanVoid() {
		return shared.InvalidStatef("Cannot void invoice in %s status", i.Status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Void reason is required")
	}

	now := time.Now()
	i.Status = InvoiceStatusVoid
	i.VoidedAt = &now
	i.VoidReason = reason
	i.Touch()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceEvent(EventTypeInvoiceVoided, i))
	return nil
}

// Delete soft-deletes a draft invoice
func (i *Invoice) Delete() error {
	if i.Status != InvoiceStatusDraft {
		return shared.InvalidStatef("Cannot delete invoice in %s status", i.Status)
	}
	i.MarkDeleted()
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceEvent(EventTypeInvoiceDeleted, i))
	return nil
}

// OutstandingAmount returns total minus paid
func (i *Invoice) OutstandingAmount() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// TimesheetEntryIDs returns the source entries referenced by the lines
func (i *Invoice) TimesheetEntryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(i.Entries))
	for _, e := range i.Entries {
		if e.TimesheetEntryID != nil {
			ids = append(ids, *e.TimesheetEntryID)
		}
	}
	return ids
}

// TotalUnits sums units over all lines
func (i *Invoice) TotalUnits() decimal.Decimal {
	total := decimal.Zero
	for _, e := range i.Entries {
		total = total.Add(e.Units)
	}
	return total
}

// IsOverdue reports whether a sent invoice is past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusSent && i.DueDate != nil && now.After(*i.DueDate)
}

func (i *Invoice) recalculate() {
	subtotal := decimal.Zero
	for _, e := range i.Entries {
		subtotal = subtotal.Add(e.Amount)
	}
	i.Subtotal = valueobject.RoundMoney(subtotal)
	i.TotalAmount = i.Subtotal
	i.Touch()
	i.IncrementVersion()
}
