package timesheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Status represents the workflow state of a timesheet
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsEditable reports whether entries may be changed
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

// CanSubmit reports whether the timesheet can be submitted
func (s Status) CanSubmit() bool {
	return s == StatusDraft || s == StatusRejected
}

// CanReview reports whether the timesheet can be approved or rejected
func (s Status) CanReview() bool {
	return s == StatusSubmitted
}

// Timesheet is a provider's record of service minutes over a period
type Timesheet struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Number          string
	ProviderID      uuid.UUID
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Status          Status
	Entries         []Entry
	TotalMinutes    int
	TotalUnits      int
	BillableUnits   int
	Notes           string
	SubmittedAt     *time.Time
	SubmittedBy     *uuid.UUID
	ReviewedAt      *time.Time
	ReviewedBy      *uuid.UUID
	RejectionReason string
}

// NewTimesheet creates a draft timesheet for a provider and period
func NewTimesheet(tenantID uuid.UUID, number string, providerID uuid.UUID, periodStart, periodEnd time.Time) (*Timesheet, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Timesheet number cannot be empty")
	}
	if providerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Provider ID cannot be empty")
	}
	start, end := truncateDay(periodStart), truncateDay(periodEnd)
	if start.IsZero() || end.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period start and end are required")
	}
	if start.After(end) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period start cannot be after period end")
	}

	ts := &Timesheet{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		ProviderID:          providerID,
		PeriodStart:         start,
		PeriodEnd:           end,
		Status:              StatusDraft,
		Entries:             make([]Entry, 0),
	}
	ts.AddDomainEvent(NewTimesheetEvent(EventTypeTimesheetCreated, ts))
	return ts, nil
}

// UpdateHeader changes the period and notes while editable
func (t *Timesheet) UpdateHeader(periodStart, periodEnd time.Time, notes string) error {
	if !t.Status.IsEditable() {
		return shared.InvalidStatef("Cannot edit timesheet in %s status", t.Status)
	}
	start, end := truncateDay(periodStart), truncateDay(periodEnd)
	if start.After(end) {
		return shared.NewDomainError("INVALID_PERIOD", "Period start cannot be after period end")
	}
	for _, e := range t.Entries {
		if e.ServiceDate.Before(start) || e.ServiceDate.After(end) {
			return shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Entry on %s falls outside the new period", e.ServiceDate.Format("2006-01-02")))
		}
	}
	t.PeriodStart = start
	t.PeriodEnd = end
	t.Notes = notes
	t.Touch()
	t.IncrementVersion()
	return nil
}

// AddEntry appends a service entry and recomputes totals
func (t *Timesheet) AddEntry(input EntryInput) (*Entry, error) {
	if !t.Status.IsEditable() {
		return nil, shared.InvalidStatef("Cannot add entries to timesheet in %s status", t.Status)
	}
	entry, err := newEntry(t.ID, input)
	if err != nil {
		return nil, err
	}
	if err := t.checkInPeriod(entry.ServiceDate); err != nil {
		return nil, err
	}
	t.Entries = append(t.Entries, *entry)
	t.recalculate()
	return &t.Entries[len(t.Entries)-1], nil
}

// UpdateEntry replaces an entry's fields and recomputes totals
func (t *Timesheet) UpdateEntry(entryID uuid.UUID, input EntryInput) (*Entry, error) {
	if !t.Status.IsEditable() {
		return nil, shared.InvalidStatef("Cannot edit entries of timesheet in %s status", t.Status)
	}
	idx := t.entryIndex(entryID)
	if idx < 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "Timesheet entry not found")
	}
	if err := t.checkInPeriod(truncateDay(input.ServiceDate)); err != nil {
		return nil, err
	}
	if err := t.Entries[idx].apply(input); err != nil {
		return nil, err
	}
	t.recalculate()
	return &t.Entries[idx], nil
}

// RemoveEntry drops an entry and recomputes totals
func (t *Timesheet) RemoveEntry(entryID uuid.UUID) error {
	if !t.Status.IsEditable() {
		return shared.InvalidStatef("Cannot remove entries of timesheet in %s status", t.Status)
	}
	idx := t.entryIndex(entryID)
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", "Timesheet entry not found")
	}
	t.Entries = append(t.Entries[:idx], t.Entries[idx+1:]...)
	t.recalculate()
	return nil
}

// Submit sends the timesheet for review
func (t *Timesheet) Submit(submittedBy uuid.UUID) error {
	if !t.Status.CanSubmit() {
		return shared.InvalidStatef("Cannot submit timesheet in %s status", t.Status)
	}
	if len(t.Entries) == 0 {
		return shared.NewDomainError("NO_ENTRIES", "Cannot submit a timesheet without entries")
	}

	now := time.Now()
	t.Status = StatusSubmitted
	t.SubmittedAt = &now
	t.SubmittedBy = ptrUUID(submittedBy)
	t.ReviewedAt = nil
	t.ReviewedBy = nil
	t.RejectionReason = ""
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTimesheetEvent(EventTypeTimesheetSubmitted, t))
	return nil
}

// Approve accepts a submitted timesheet
func (t *Timesheet) Approve(approvedBy uuid.UUID) error {
	if !t.Status.CanReview() {
		return shared.InvalidStatef("Cannot approve timesheet in %s status", t.Status)
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Approver user ID cannot be empty")
	}
	if t.SubmittedBy != nil && *t.SubmittedBy == approvedBy {
		return shared.NewDomainError("SELF_APPROVAL", "Cannot approve a timesheet you submitted")
	}

	now := time.Now()
	t.Status = StatusApproved
	t.ReviewedAt = &now
	t.ReviewedBy = &approvedBy
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTimesheetEvent(EventTypeTimesheetApproved, t))
	return nil
}

// Reject returns a submitted timesheet to the provider with a reason
func (t *Timesheet) Reject(rejectedBy uuid.UUID, reason string) error {
	if !t.Status.CanReview() {
		return shared.InvalidStatef("Cannot reject timesheet in %s status", t.Status)
	}
	if rejectedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Reviewer user ID cannot be empty")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}

	now := time.Now()
	t.Status = StatusRejected
	t.ReviewedAt = &now
	t.ReviewedBy = &rejectedBy
	t.RejectionReason = reason
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTimesheetEvent(EventTypeTimesheetRejected, t))
	return nil
}

// Reopen moves an approved timesheet back to draft while nothing is invoiced
func (t *Timesheet) Reopen() error {
	if t.Status != StatusApproved {
		return shared.InvalidStatef("Cannot reopen timesheet in %s status", t.Status)
	}
	if t.HasInvoicedEntries() {
		return shared.InvalidStatef("Cannot reopen a timesheet with invoiced entries")
	}
	t.Status = StatusDraft
	t.ReviewedAt = nil
	t.ReviewedBy = nil
	t.SubmittedAt = nil
	t.SubmittedBy = nil
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTimesheetEvent(EventTypeTimesheetReopened, t))
	return nil
}

// Delete soft-deletes a draft or rejected timesheet
func (t *Timesheet) Delete() error {
	if !t.Status.IsEditable() {
		return shared.InvalidStatef("Cannot delete timesheet in %s status", t.Status)
	}
	t.MarkDeleted()
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTimesheetEvent(EventTypeTimesheetDeleted, t))
	return nil
}

// HasInvoicedEntries reports whether any entry has been billed
func (t *Timesheet) HasInvoicedEntries() bool {
	for _, e := range t.Entries {
		if e.InvoiceID != nil {
			return true
		}
	}
	return false
}

// TotalHours returns total minutes as decimal hours
func (t *Timesheet) TotalHours() string {
	return valueobject.HoursFromMinutes(t.TotalMinutes).StringFixed(2)
}

func (t *Timesheet) recalculate() {
	minutes, units, billable := 0, 0, 0
	for _, e := range t.Entries {
		minutes += e.Minutes
		units += e.Units
		if e.Billable {
			billable += e.Units
		}
	}
	t.TotalMinutes = minutes
	t.TotalUnits = units
	t.BillableUnits = billable
	t.Touch()
	t.IncrementVersion()
}

func (t *Timesheet) checkInPeriod(day time.Time) error {
	if day.Before(t.PeriodStart) || day.After(t.PeriodEnd) {
		return shared.NewDomainError("DATE_OUT_OF_PERIOD", fmt.Sprintf(
			"Service date %s is outside the timesheet period %s to %s",
			day.Format("2006-01-02"), t.PeriodStart.Format("2006-01-02"), t.PeriodEnd.Format("2006-01-02")))
	}
	return nil
}

func (t *Timesheet) entryIndex(id uuid.UUID) int {
	for i := range t.Entries {
		if t.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
