package timesheet

import (
	"time"

	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
)

// Actor is the authenticated user performing a timesheet operation
type Actor struct {
	UserID     uuid.UUID
	ProviderID *uuid.UUID
	// CanApprove is true when the user holds timesheet:approve
	CanApprove bool
}

// restricted reports whether the actor may only work on their own provider's timesheets
func (a Actor) restricted() bool {
	return a.ProviderID != nil && !a.CanApprove
}

// CreateTimesheetRequest creates a draft timesheet
type CreateTimesheetRequest struct {
	ProviderID  uuid.UUID      `json:"provider_id"`
	PeriodStart time.Time      `json:"period_start" binding:"required"`
	PeriodEnd   time.Time      `json:"period_end" binding:"required"`
	Notes       string         `json:"notes" binding:"max=2000"`
	Entries     []EntryRequest `json:"entries" binding:"omitempty,dive"`
}

// UpdateTimesheetRequest changes the header of a draft timesheet
type UpdateTimesheetRequest struct {
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

// EntryRequest adds or replaces a service entry
type EntryRequest struct {
	ClientID    uuid.UUID `json:"client_id" binding:"required"`
	ServiceDate time.Time `json:"service_date" binding:"required"`
	ServiceCode string    `json:"service_code" binding:"max=20"`
	Minutes     int       `json:"minutes" binding:"required,min=1,max=1440"`
	Billable    *bool     `json:"billable"`
	Notes       string    `json:"notes" binding:"max=1000"`
}

// RejectTimesheetRequest carries the rejection reason
type RejectTimesheetRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// TimesheetListFilter filters the timesheet list
type TimesheetListFilter struct {
	Search     string     `form:"search"`
	ProviderID string     `form:"provider_id" binding:"omitempty,uuid"`
	Status     string     `form:"status" binding:"omitempty,oneof=draft submitted approved rejected"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// EntryResponse represents a timesheet entry
type EntryResponse struct {
	ID          uuid.UUID  `json:"id"`
	ClientID    uuid.UUID  `json:"client_id"`
	ServiceDate time.Time  `json:"service_date"`
	ServiceCode string     `json:"service_code,omitempty"`
	Minutes     int        `json:"minutes"`
	Units       int        `json:"units"`
	Billable    bool       `json:"billable"`
	Notes       string     `json:"notes,omitempty"`
	InvoiceID   *uuid.UUID `json:"invoice_id,omitempty"`
}

// TimesheetResponse represents a timesheet with its entries
type TimesheetResponse struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	ProviderID      uuid.UUID       `json:"provider_id"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	Status          string          `json:"status"`
	TotalMinutes    int             `json:"total_minutes"`
	TotalHours      string          `json:"total_hours"`
	TotalUnits      int             `json:"total_units"`
	BillableUnits   int             `json:"billable_units"`
	Notes           string          `json:"notes,omitempty"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	SubmittedBy     *uuid.UUID      `json:"submitted_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	ReviewedBy      *uuid.UUID      `json:"reviewed_by,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	Entries         []EntryResponse `json:"entries"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// TimesheetListItem is the list view of a timesheet, without entries
type TimesheetListItem struct {
	ID            uuid.UUID `json:"id"`
	Number        string    `json:"number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	Status        string    `json:"status"`
	TotalMinutes  int       `json:"total_minutes"`
	TotalUnits    int       `json:"total_units"`
	BillableUnits int       `json:"billable_units"`
	EntryCount    int       `json:"entry_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToTimesheetResponse converts a domain timesheet
func ToTimesheetResponse(t *timesheet.Timesheet) TimesheetResponse {
	entries := make([]EntryResponse, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = EntryResponse{
			ID:          e.ID,
			ClientID:    e.ClientID,
			ServiceDate: e.ServiceDate,
			ServiceCode: e.ServiceCode,
			Minutes:     e.Minutes,
			Units:       e.Units,
			Billable:    e.Billable,
			Notes:       e.Notes,
			InvoiceID:   e.InvoiceID,
		}
	}
	return TimesheetResponse{
		ID:              t.ID,
		Number:          t.Number,
		ProviderID:      t.ProviderID,
		PeriodStart:     t.PeriodStart,
		PeriodEnd:       t.PeriodEnd,
		Status:          string(t.Status),
		TotalMinutes:    t.TotalMinutes,
		TotalHours:      t.TotalHours(),
		TotalUnits:      t.TotalUnits,
		BillableUnits:   t.BillableUnits,
		Notes:           t.Notes,
		SubmittedAt:     t.SubmittedAt,
		SubmittedBy:     t.SubmittedBy,
		ReviewedAt:      t.ReviewedAt,
		ReviewedBy:      t.ReviewedBy,
		RejectionReason: t.RejectionReason,
		Entries:         entries,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Version:         t.Version,
	}
}

// ToTimesheetListItem converts a domain timesheet to its list view
func ToTimesheetListItem(t *timesheet.Timesheet) TimesheetListItem {
	return TimesheetListItem{
		ID:            t.ID,
		Number:        t.Number,
		ProviderID:    t.ProviderID,
		PeriodStart:   t.PeriodStart,
		PeriodEnd:     t.PeriodEnd,
		Status:        string(t.Status),
		TotalMinutes:  t.TotalMinutes,
		TotalUnits:    t.TotalUnits,
		BillableUnits: t.BillableUnits,
		EntryCount:    len(t.Entries),
		UpdatedAt:     t.UpdatedAt,
	}
}

func (r EntryRequest) input() timesheet.EntryInput {
	billable := true
	if r.Billable != nil {
		billable = *r.Billable
	}
	return timesheet.EntryInput{
		ClientID:    r.ClientID,
		ServiceDate: r.ServiceDate,
		ServiceCode: r.ServiceCode,
		Minutes:     r.Minutes,
		Billable:    billable,
		Notes:       r.Notes,
	}
}
