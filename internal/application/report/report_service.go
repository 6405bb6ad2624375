package report

import (
	"context"
	"fmt"
	"time"

	"github.com/carehours/backend/internal/domain/report"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// maxReportSpan bounds a period report
const maxReportSpan = 366 * 24 * time.Hour

// ReportService provides application-level report operations
type ReportService struct {
	repo report.Repository
	now  func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(repo report.Repository) *ReportService {
	return &ReportService{repo: repo, now: time.Now}
}

// PeriodRequest selects service dates for a period report. Dates are YYYY-MM-DD.
type PeriodRequest struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}

// AgingRequest selects the as-of date for the aging report, today by default
type AgingRequest struct {
	AsOf string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// UnbilledUnitsResponse lists unbilled work for a period
type UnbilledUnitsResponse struct {
	From       time.Time              `json:"from"`
	To         time.Time              `json:"to"`
	Clients    []report.UnbilledUnits `json:"clients"`
	TotalUnits int64                  `json:"total_units"`
}

// ProviderHoursResponse lists approved hours for a period
type ProviderHoursResponse struct {
	From      time.Time              `json:"from"`
	To        time.Time              `json:"to"`
	Providers []report.ProviderHours `json:"providers"`
}

// GetUnbilledUnits returns approved billable units not yet invoiced
func (s *ReportService) GetUnbilledUnits(ctx context.Context, tenantID uuid.UUID, req PeriodRequest) (*UnbilledUnitsResponse, error) {
	filter, err := parsePeriod(tenantID, req)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.UnbilledUnits(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load unbilled units: %w", err)
	}
	resp := &UnbilledUnitsResponse{From: filter.From, To: filter.To, Clients: rows}
	for _, r := range rows {
		resp.TotalUnits += r.Units
	}
	return resp, nil
}

// GetProviderHours returns approved hours per provider
func (s *ReportService) GetProviderHours(ctx context.Context, tenantID uuid.UUID, req PeriodRequest) (*ProviderHoursResponse, error) {
	filter, err := parsePeriod(tenantID, req)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ProviderHours(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider hours: %w", err)
	}
	return &ProviderHoursResponse{From: filter.From, To: filter.To, Providers: rows}, nil
}

// GetReceivablesAging returns outstanding balances bucketed by days past due
func (s *ReportService) GetReceivablesAging(ctx context.Context, tenantID uuid.UUID, req AgingRequest) (*report.AgingReport, error) {
	asOf := s.now().UTC()
	if req.AsOf != "" {
		d, err := time.Parse(time.DateOnly, req.AsOf)
		if err != nil {
			return nil, shared.InvalidInputf("Invalid as_of date: %s", req.AsOf)
		}
		asOf = d
	}
	rep, err := s.repo.ReceivablesAging(ctx, tenantID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load receivables aging: %w", err)
	}
	return rep, nil
}

func parsePeriod(tenantID uuid.UUID, req PeriodRequest) (report.PeriodFilter, error) {
	from, err := time.Parse(time.DateOnly, req.From)
	if err != nil {
		return report.PeriodFilter{}, shared.InvalidInputf("Invalid from date: %s", req.From)
	}
	to, err := time.Parse(time.DateOnly, req.To)
	if err != nil {
		return report.PeriodFilter{}, shared.InvalidInputf("Invalid to date: %s", req.To)
	}
	if to.Before(from) {
		return report.PeriodFilter{}, shared.InvalidInputf("Period end cannot be before period start")
	}
	if to.Sub(from) > maxReportSpan {
		return report.PeriodFilter{}, shared.InvalidInputf("Report period cannot exceed one year")
	}
	return report.PeriodFilter{TenantID: tenantID, From: from, To: to}, nil
}
