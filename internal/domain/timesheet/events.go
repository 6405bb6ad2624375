package timesheet

import (
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeTimesheet is the aggregate type name
const AggregateTypeTimesheet = "Timesheet"

// Timesheet event types
const (
	EventTypeTimesheetCreated   = "timesheet.created"
	EventTypeTimesheetSubmitted = "timesheet.submitted"
	EventTypeTimesheetApproved  = "timesheet.approved"
	EventTypeTimesheetRejected  = "timesheet.rejected"
	EventTypeTimesheetReopened  = "timesheet.reopened"
	EventTypeTimesheetDeleted   = "timesheet.deleted"
)

// TimesheetEvent captures a workflow change of a timesheet
type TimesheetEvent struct {
	shared.BaseDomainEvent
	Number        string     `json:"number"`
	ProviderID    uuid.UUID  `json:"provider_id"`
	Status        Status     `json:"status"`
	TotalMinutes  int        `json:"total_minutes"`
	BillableUnits int        `json:"billable_units"`
	ReviewedBy    *uuid.UUID `json:"reviewed_by,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// NewTimesheetEvent builds an event from the timesheet's current state
func NewTimesheetEvent(eventType string, t *Timesheet) *TimesheetEvent {
	return &TimesheetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTimesheet, t.ID, t.TenantID),
		Number:          t.Number,
		ProviderID:      t.ProviderID,
		Status:          t.Status,
		TotalMinutes:    t.TotalMinutes,
		BillableUnits:   t.BillableUnits,
		ReviewedBy:      t.ReviewedBy,
		Reason:          t.RejectionReason,
	}
}
