package billing

import (
	"time"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceRequest bills a client's approved time for a period
type GenerateInvoiceRequest struct {
	ClientID    uuid.UUID `json:"client_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

// UpdateInvoiceRequest changes the recipient and notes of a draft
type UpdateInvoiceRequest struct {
	BillToName  string `json:"bill_to_name" binding:"max=200"`
	BillToEmail string `json:"bill_to_email" binding:"omitempty,email,max=200"`
	Notes       string `json:"notes" binding:"max=2000"`
}

// AddLineRequest adds a manual line. Units win over minutes when both are set.
type AddLineRequest struct {
	ServiceDate time.Time       `json:"service_date" binding:"required"`
	Description string          `json:"description" binding:"required,max=500"`
	ServiceCode string          `json:"service_code" binding:"max=20"`
	Minutes     int             `json:"minutes" binding:"omitempty,min=0,max=1440"`
	Units       decimal.Decimal `json:"units"`
	Rate        decimal.Decimal `json:"rate" binding:"money"`
}

// RecordPaymentRequest applies a payment
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"money"`
}

// VoidRequest cancels an invoice
type VoidRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// InvoiceListFilter filters the invoice list
type InvoiceListFilter struct {
	Search      string     `form:"search"`
	ClientID    string     `form:"client_id" binding:"omitempty,uuid"`
	InsuranceID string     `form:"insurance_id" binding:"omitempty,uuid"`
	Status      string     `form:"status" binding:"omitempty,oneof=draft sent paid void"`
	IssueFrom   *time.Time `form:"issue_from" time_format:"2006-01-02"`
	IssueTo     *time.Time `form:"issue_to" time_format:"2006-01-02"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceLineResponse represents an invoice line
type InvoiceLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	TimesheetEntryID *uuid.UUID      `json:"timesheet_entry_id,omitempty"`
	ServiceDate      time.Time       `json:"service_date"`
	Description      string          `json:"description"`
	ServiceCode      string          `json:"service_code,omitempty"`
	Minutes          int             `json:"minutes"`
	Units            decimal.Decimal `json:"units"`
	Rate             decimal.Decimal `json:"rate"`
	Amount           decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents an invoice with its lines
type InvoiceResponse struct {
	ID                uuid.UUID             `json:"id"`
	Number            string                `json:"number"`
	ClientID          uuid.UUID             `json:"client_id"`
	InsuranceID       *uuid.UUID            `json:"insurance_id,omitempty"`
	BillToName        string                `json:"bill_to_name,omitempty"`
	BillToEmail       string                `json:"bill_to_email,omitempty"`
	PeriodStart       time.Time             `json:"period_start"`
	PeriodEnd         time.Time             `json:"period_end"`
	IssueDate         *time.Time            `json:"issue_date,omitempty"`
	DueDate           *time.Time            `json:"due_date,omitempty"`
	Status            string                `json:"status"`
	Lines             []InvoiceLineResponse `json:"lines"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	PaidAmount        decimal.Decimal       `json:"paid_amount"`
	OutstandingAmount decimal.Decimal       `json:"outstanding_amount"`
	SentAt            *time.Time            `json:"sent_at,omitempty"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
	VoidedAt          *time.Time            `json:"voided_at,omitempty"`
	VoidReason        string                `json:"void_reason,omitempty"`
	Notes             string                `json:"notes,omitempty"`
	DocumentID        *uuid.UUID            `json:"document_id,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Version           int                   `json:"version"`
}

// Delivery reports the PDF and email produced when an invoice is sent
type Delivery struct {
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	EmailID    *uuid.UUID `json:"email_id,omitempty"`
	// Warning explains a delivery step that did not complete
	Warning string `json:"warning,omitempty"`
}

// SendInvoiceResponse is returned when an invoice is sent
type SendInvoiceResponse struct {
	Invoice  InvoiceResponse `json:"invoice"`
	Delivery Delivery        `json:"delivery"`
}

// SendCommunityInvoiceResponse is returned when a community invoice is sent
type SendCommunityInvoiceResponse struct {
	Invoice  CommunityInvoiceResponse `json:"invoice"`
	Delivery Delivery                 `json:"delivery"`
}

// CreateClassRequest schedules a community class
type CreateClassRequest struct {
	Name          string          `json:"name" binding:"required,max=200"`
	Description   string          `json:"description" binding:"max=2000"`
	InstructorID  *uuid.UUID      `json:"instructor_id"`
	ScheduledAt   time.Time       `json:"scheduled_at" binding:"required"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	RatePerUnit   decimal.Decimal `json:"rate_per_unit" binding:"money"`
	Capacity      int             `json:"capacity" binding:"min=0"`
}

// UpdateClassRequest replaces the details of a scheduled class
type UpdateClassRequest = CreateClassRequest

// EnrollRequest names the client joining or leaving a class
type EnrollRequest struct {
	ClientID uuid.UUID `json:"client_id" binding:"required"`
}

// ClassListFilter filters the class list
type ClassListFilter struct {
	Search        string     `form:"search"`
	Status        string     `form:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
	InstructorID  string     `form:"instructor_id" binding:"omitempty,uuid"`
	ScheduledFrom *time.Time `form:"scheduled_from" time_format:"2006-01-02"`
	ScheduledTo   *time.Time `form:"scheduled_to" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ClassResponse represents a community class
type ClassResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	InstructorID  *uuid.UUID      `json:"instructor_id,omitempty"`
	ScheduledAt   time.Time       `json:"scheduled_at"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	RatePerUnit   decimal.Decimal `json:"rate_per_unit"`
	Capacity      int             `json:"capacity"`
	Enrolled      int             `json:"enrolled"`
	Status        string          `json:"status"`
	AttendeeIDs   []uuid.UUID     `json:"attendee_ids"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// CommunityInvoiceListFilter filters the community invoice list
type CommunityInvoiceListFilter struct {
	Search   string `form:"search"`
	ClassID  string `form:"class_id" binding:"omitempty,uuid"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=draft sent paid void"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CommunityInvoiceResponse represents a community invoice
type CommunityInvoiceResponse struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	ClassID     uuid.UUID       `json:"class_id"`
	ClientID    uuid.UUID       `json:"client_id"`
	BillToEmail string          `json:"bill_to_email,omitempty"`
	Hours       decimal.Decimal `json:"hours"`
	Units       decimal.Decimal `json:"units"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Status      string          `json:"status"`
	IssueDate   *time.Time      `json:"issue_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	VoidedAt    *time.Time      `json:"voided_at,omitempty"`
	VoidReason  string          `json:"void_reason,omitempty"`
	DocumentID  *uuid.UUID      `json:"document_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToInvoiceResponse converts a domain invoice
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Entries))
	for i, e := range inv.Entries {
		lines[i] = InvoiceLineResponse{
			ID:               e.ID,
			TimesheetEntryID: e.TimesheetEntryID,
			ServiceDate:      e.ServiceDate,
			Description:      e.Description,
			ServiceCode:      e.ServiceCode,
			Minutes:          e.Minutes,
			Units:            e.Units,
			Rate:             e.Rate,
			Amount:           e.Amount,
		}
	}
	return InvoiceResponse{
		ID:                inv.ID,
		Number:            inv.Number,
		ClientID:          inv.ClientID,
		InsuranceID:       inv.InsuranceID,
		BillToName:        inv.BillToName,
		BillToEmail:       inv.BillToEmail,
		PeriodStart:       inv.PeriodStart,
		PeriodEnd:         inv.PeriodEnd,
		IssueDate:         inv.IssueDate,
		DueDate:           inv.DueDate,
		Status:            string(inv.Status),
		Lines:             lines,
		Subtotal:          inv.Subtotal,
		TotalAmount:       inv.TotalAmount,
		PaidAmount:        inv.PaidAmount,
		OutstandingAmount: inv.OutstandingAmount(),
		SentAt:            inv.SentAt,
		PaidAt:            inv.PaidAt,
		VoidedAt:          inv.VoidedAt,
		VoidReason:        inv.VoidReason,
		Notes:             inv.Notes,
		DocumentID:        inv.DocumentID,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
		Version:           inv.Version,
	}
}

// ToClassResponse converts a domain class
func ToClassResponse(c *billing.CommunityClass) ClassResponse {
	attendees := make([]uuid.UUID, len(c.AttendeeIDs))
	copy(attendees, c.AttendeeIDs)
	return ClassResponse{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		InstructorID:  c.InstructorID,
		ScheduledAt:   c.ScheduledAt,
		DurationHours: c.DurationHours,
		RatePerUnit:   c.RatePerUnit,
		Capacity:      c.Capacity,
		Enrolled:      len(c.AttendeeIDs),
		Status:        string(c.Status),
		AttendeeIDs:   attendees,
		CompletedAt:   c.CompletedAt,
		CancelledAt:   c.CancelledAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Version:       c.Version,
	}
}

// ToCommunityInvoiceResponse converts a domain community invoice
func ToCommunityInvoiceResponse(ci *billing.CommunityInvoice) CommunityInvoiceResponse {
	return CommunityInvoiceResponse{
		ID:          ci.ID,
		Number:      ci.Number,
		ClassID:     ci.ClassID,
		ClientID:    ci.ClientID,
		BillToEmail: ci.BillToEmail,
		Hours:       ci.Hours,
		Units:       ci.Units,
		Rate:        ci.Rate,
		Amount:      ci.Amount,
		PaidAmount:  ci.PaidAmount,
		Status:      string(ci.Status),
		IssueDate:   ci.IssueDate,
		DueDate:     ci.DueDate,
		SentAt:      ci.SentAt,
		PaidAt:      ci.PaidAt,
		VoidedAt:    ci.VoidedAt,
		VoidReason:  ci.VoidReason,
		DocumentID:  ci.DocumentID,
		CreatedAt:   ci.CreatedAt,
		UpdatedAt:   ci.UpdatedAt,
		Version:     ci.Version,
	}
}

func (r CreateClassRequest) details() billing.ClassDetails {
	return billing.ClassDetails{
		Name:          r.Name,
		Description:   r.Description,
		InstructorID:  r.InstructorID,
		ScheduledAt:   r.ScheduledAt,
		DurationHours: r.DurationHours,
		RatePerUnit:   r.RatePerUnit,
		Capacity:      r.Capacity,
	}
}
