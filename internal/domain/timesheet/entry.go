package timesheet

import (
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Entry is one service session logged on a timesheet
type Entry struct {
	ID          uuid.UUID
	TimesheetID uuid.UUID
	ClientID    uuid.UUID
	ServiceDate time.Time
	ServiceCode string
	Minutes     int
	Units       int
	Billable    bool
	Notes       string
	InvoiceID   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EntryInput carries the editable fields of an entry
type EntryInput struct {
	ClientID    uuid.UUID
	ServiceDate time.Time
	ServiceCode string
	Minutes     int
	Billable    bool
	Notes       string
}

func newEntry(timesheetID uuid.UUID, input EntryInput) (*Entry, error) {
	now := time.Now()
	e := &Entry{
		ID:          uuid.New(),
		TimesheetID: timesheetID,
		CreatedAt:   now,
	}
	if err := e.apply(input); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Entry) apply(input EntryInput) error {
	if input.ClientID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if input.ServiceDate.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Service date is required")
	}
	if input.Minutes <= 0 || input.Minutes > valueobject.MaxMinutesPerDay {
		return shared.NewDomainError("INVALID_MINUTES", "Minutes must be between 1 and 1440")
	}
	units, err := valueobject.UnitsFromMinutes(input.Minutes)
	if err != nil {
		return shared.NewDomainError("INVALID_MINUTES", err.Error())
	}

	e.ClientID = input.ClientID
	e.ServiceDate = truncateDay(input.ServiceDate)
	e.ServiceCode = strings.ToUpper(strings.TrimSpace(input.ServiceCode))
	e.Minutes = input.Minutes
	e.Units = units
	e.Billable = input.Billable
	e.Notes = input.Notes
	e.UpdatedAt = time.Now()
	return nil
}

// IsInvoiced reports whether the entry is on an invoice
func (e *Entry) IsInvoiced() bool {
	return e.InvoiceID != nil
}
