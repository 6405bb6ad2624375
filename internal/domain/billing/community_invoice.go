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

// CommunityInvoice bills one attendee for one completed class
type CommunityInvoice struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Number      string
	ClassID     uuid.UUID
	ClientID    uuid.UUID
	BillToEmail string
	Hours       decimal.Decimal
	Units       decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
	PaidAmount  decimal.Decimal
	Status      InvoiceStatus
	IssueDate   *time.Time
	DueDate     *time.Time
	SentAt      *time.Time
	PaidAt      *time.Time
	VoidedAt    *time.Time
	VoidReason  string
	DocumentID  *uuid.UUID
}

// NewCommunityInvoice creates a draft from a completed class for one attendee
func NewCommunityInvoice(number string, class *CommunityClass, clientID uuid.UUID) (*CommunityInvoice, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if class.Status != ClassStatusCompleted {
		return nil, shared.InvalidStatef("Cannot invoice class in %s status", class.Status)
	}
	if !class.IsEnrolled(clientID) {
		return nil, shared.NewDomainError("NOT_ENROLLED", "Client did not attend the class")
	}
	units, err := valueobject.UnitsFromHours(class.DurationHours)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DURATION", err.Error())
	}

	ci := &CommunityInvoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(class.TenantID),
		Number:              number,
		ClassID:             class.ID,
		ClientID:            clientID,
		Hours:               class.DurationHours,
		Units:               units,
		Rate:                class.RatePerUnit,
		Amount:              valueobject.LineAmount(units, class.RatePerUnit),
		PaidAmount:          decimal.Zero,
		Status:              InvoiceStatusDraft,
	}
	ci.AddDomainEvent(NewCommunityInvoiceEvent(EventTypeCommunityInvoiceCreated, ci))
	return ci, nil
}

// SetBillToEmail sets the recipient while draft
func (ci *CommunityInvoice) SetBillToEmail(email string) error {
	if ci.Status != InvoiceStatusDraft {
		return shared.InvalidStatef("Cannot change recipient of invoice in %s status", ci.Status)
	}
	ci.BillToEmail = strings.ToLower(strings.TrimSpace(email))
	ci.Touch()
	return nil
}

// Send issues the community invoice
func (ci *CommunityInvoice) Send(issueDate time.Time, paymentTermsDays int) error {
	if !ci.Status.CanSend() {
		return shared.InvalidStatef("Cannot send invoice in %s status", ci.Status)
	}
	if ci.BillToEmail == "" {
		return shared.NewDomainError("NO_RECIPIENT", "Invoice has no recipient email")
	}
	if paymentTermsDays < 0 {
		paymentTermsDays = 0
	}
	now := time.Now()
	due := issueDate.AddDate(0, 0, paymentTermsDays)
	ci.Status = InvoiceStatusSent
	ci.IssueDate = &issueDate
	ci.DueDate = &due
	ci.SentAt = &now
	ci.Touch()
	ci.IncrementVersion()
	ci.AddDomainEvent(NewCommunityInvoiceEvent(EventTypeCommunityInvoiceSent, ci))
	return nil
}

// RecordPayment applies a payment; paid once the amount is covered
func (ci *CommunityInvoice) RecordPayment(amount decimal.Decimal) error {
	if !ci.Status.CanApplyPayment() {
		return shared.InvalidStatef("Cannot record payment on invoice in %s status", ci.Status)
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	outstanding := ci.Amount.Sub(ci.PaidAmount)
	if amount.GreaterThan(outstanding) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", fmt.Sprintf("Payment amount %s exceeds outstanding amount %s", amount.StringFixed(2), outstanding.StringFixed(2)))
	}
	ci.PaidAmount = valueobject.RoundMoney(ci.PaidAmount.Add(amount))
	ci.Touch()
	ci.IncrementVersion()
	if ci.PaidAmount.GreaterThanOrEqual(ci.Amount) {
		now := time.Now()
		ci.Status = InvoiceStatusPaid
		ci.PaidAt = &now
		ci.AddDomainEvent(NewCommunityInvoiceEvent(EventTypeCommunityInvoicePaid, ci))
	}
	return nil
}

// Void cancels the community invoice
func (ci *CommunityInvoice) Void(reason string) error {
	if !ci.Status.CanVoid() {
		return shared.InvalidStatef("Cannot void invoice in %s status", ci.Status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Void reason is required")
	}
	now := time.Now()
	ci.Status = InvoiceStatusVoid
	ci.VoidedAt = &now
	ci.VoidReason = reason
	ci.Touch()
	ci.IncrementVersion()
	ci.AddDomainEvent(NewCommunityInvoiceEvent(EventTypeCommunityInvoiceVoided, ci))
	return nil
}

// Delete soft-deletes a draft community invoice
func (ci *CommunityInvoice) Delete() error {
	if ci.Status != InvoiceStatusDraft {
		return shared.InvalidStatef("Cannot delete invoice in %s status", ci.Status)
	}
	ci.MarkDeleted()
	ci.Touch()
	ci.IncrementVersion()
	return nil
}

