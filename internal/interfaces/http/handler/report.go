package handler

import (
	"github.com/carehours/backend/internal/application/report"
	domainreport "github.com/carehours/backend/internal/domain/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the read-only billing and payroll reports
type ReportHandler struct {
	BaseHandler
	reportService *report.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *report.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// UnbilledUnits godoc
// @ID           getUnbilledUnitsReport
// @Summary      Approved units not yet invoiced, per client
// @Tags         reports
// @Produce      json
// @Param        from query string true "Period start (YYYY-MM-DD)"
// @Param        to   query string true "Period end (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[report.UnbilledUnitsResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/unbilled-units [get]
func (h *ReportHandler) UnbilledUnits(c *gin.Context) {
	var req report.PeriodRequest
	if !h.bindQuery(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	result, err := h.reportService.GetUnbilledUnits(c.Request.Context(), tenantID, req)
	h.respond(c, result, err)
}

// ProviderHours godoc
// @ID           getProviderHoursReport
// @Summary      Approved hours per provider
// @Tags         reports
// @Produce      json
// @Param        from query string true "Period start (YYYY-MM-DD)"
// @Param        to   query string true "Period end (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[report.ProviderHoursResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/provider-hours [get]
func (h *ReportHandler) ProviderHours(c *gin.Context) {
	var req report.PeriodRequest
	if !h.bindQuery(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	result, err := h.reportService.GetProviderHours(c.Request.Context(), tenantID, req)
	h.respond(c, result, err)
}

// ReceivablesAging godoc
// @ID           getReceivablesAgingReport
// @Summary      Outstanding invoices bucketed by days past due
// @Tags         reports
// @Produce      json
// @Param        as_of query string false "As-of date (YYYY-MM-DD), today by default"
// @Success      200 {object} APIResponse[domainreport.AgingReport]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/receivables-aging [get]
func (h *ReportHandler) ReceivablesAging(c *gin.Context) {
	var req report.AgingRequest
	if !h.bindQuery(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var aging *domainreport.AgingReport
	aging, err := h.reportService.GetReceivablesAging(c.Request.Context(), tenantID, req)
	h.respond(c, aging, err)
}
