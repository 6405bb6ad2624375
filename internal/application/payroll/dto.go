package payroll

import (
	"time"

	"github.com/carehours/backend/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UploadRequest describes an uploaded payroll file
type UploadRequest struct {
	FileName    string
	PeriodStart time.Time `form:"period_start" binding:"required" time_format:"2006-01-02"`
	PeriodEnd   time.Time `form:"period_end" binding:"required" time_format:"2006-01-02"`
}

// ImportListFilter filters the import list
type ImportListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=uploaded validated processed failed"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RowResponse is one line of an import
type RowResponse struct {
	ID          uuid.UUID       `json:"id"`
	RowNumber   int             `json:"row_number"`
	ProviderRef string          `json:"provider_ref"`
	ProviderID  *uuid.UUID      `json:"provider_id,omitempty"`
	WorkDate    *time.Time      `json:"work_date,omitempty"`
	Hours       decimal.Decimal `json:"hours"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	Memo        string          `json:"memo,omitempty"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
}

// ImportResponse represents a payroll import with its rows
type ImportResponse struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	FileName    string          `json:"file_name"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Status      string          `json:"status"`
	TotalRows   int             `json:"total_rows"`
	ValidRows   int             `json:"valid_rows"`
	ErrorRows   int             `json:"error_rows"`
	TotalHours  decimal.Decimal `json:"total_hours"`
	TotalPay    decimal.Decimal `json:"total_pay"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	ProcessedBy *uuid.UUID      `json:"processed_by,omitempty"`
	Rows        []RowResponse   `json:"rows,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// VarianceResponse compares one provider's imported and approved hours
type VarianceResponse struct {
	ProviderID     uuid.UUID       `json:"provider_id"`
	ProviderName   string          `json:"provider_name,omitempty"`
	ImportedHours  decimal.Decimal `json:"imported_hours"`
	TimesheetHours decimal.Decimal `json:"timesheet_hours"`
	Difference     decimal.Decimal `json:"difference"`
}

// ReconcileResponse lists the per-provider variances of an import
type ReconcileResponse struct {
	ImportID    uuid.UUID          `json:"import_id"`
	Number      string             `json:"number"`
	PeriodStart time.Time          `json:"period_start"`
	PeriodEnd   time.Time          `json:"period_end"`
	Matched     bool               `json:"matched"`
	Variances   []VarianceResponse `json:"variances"`
}

// ToImportResponse converts an import, rows included when withRows is set
func ToImportResponse(p *payroll.PayrollImport, withRows bool) ImportResponse {
	resp := ImportResponse{
		ID:          p.ID,
		Number:      p.Number,
		FileName:    p.FileName,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		Status:      string(p.Status),
		TotalRows:   p.TotalRows,
		ValidRows:   p.ValidRows,
		ErrorRows:   p.ErrorRows,
		TotalHours:  p.TotalHours,
		TotalPay:    p.TotalPay,
		ProcessedAt: p.ProcessedAt,
		ProcessedBy: p.ProcessedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
	if withRows {
		resp.Rows = make([]RowResponse, len(p.Rows))
		for i, r := range p.Rows {
			resp.Rows[i] = RowResponse{
				ID:          r.ID,
				RowNumber:   r.RowNumber,
				ProviderRef: r.ProviderRef,
				ProviderID:  r.ProviderID,
				WorkDate:    r.WorkDate,
				Hours:       r.Hours,
				Rate:        r.Rate,
				Amount:      r.Amount,
				Memo:        r.Memo,
				Status:      string(r.Status),
				Error:       r.Error,
			}
		}
	}
	return resp
}
