package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/carehours/backend/internal/application/payroll"
	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// maxPayrollFileSize bounds the uploaded CSV (10MB)
const maxPayrollFileSize = 10 * 1024 * 1024

var csvContentTypes = map[string]bool{
	"":                         true,
	"text/csv":                 true,
	"text/plain":               true,
	"application/octet-stream": true,
	"application/vnd.ms-excel": true,
}

// PayrollHandler handles payroll import HTTP requests
type PayrollHandler struct {
	BaseHandler
	payrollService *payroll.PayrollService
}

// NewPayrollHandler creates a new payroll handler
func NewPayrollHandler(payrollService *payroll.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: payrollService}
}

// Upload godoc
// @ID           uploadPayroll
// @Summary      Upload a payroll CSV
// @Description  Columns provider, work_date and hours are required; rate and memo are optional. Every row is stored, invalid ones with an error message.
// @Tags         payroll
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData file   true "Payroll CSV"
// @Param        period_start formData string true "Period start (YYYY-MM-DD)"
// @Param        period_end   formData string true "Period end (YYYY-MM-DD)"
// @Success      201 {object} APIResponse[payroll.ImportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payroll/imports [post]
func (h *PayrollHandler) Upload(c *gin.Context) {
	var req payroll.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "period_start and period_end are required (YYYY-MM-DD)")
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxPayrollFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "file exceeds maximum size of 10MB")
		return
	}
	if !csvContentTypes[header.Header.Get("Content-Type")] || !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return
	}
	req.FileName = filepath.Base(header.Filename)

	imp, err := h.payrollService.Upload(c.Request.Context(), tenantID, req, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, imp)
}

// GetByID godoc
// @ID           getPayrollImportById
// @Summary      Get a payroll import with its rows
// @Tags         payroll
// @Produce      json
// @Param        id path string true "Import ID" format(uuid)
// @Success      200 {object} APIResponse[payroll.ImportResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payroll/imports/{id} [get]
func (h *PayrollHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	imp, err := h.payrollService.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, imp, err)
}

// List godoc
// @ID           listPayrollImports
// @Summary      List payroll imports
// @Tags         payroll
// @Produce      json
// @Param        search    query string false "Number or file name"
// @Param        status    query string false "Status" Enums(uploaded, validated, processed, failed)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]payroll.ImportResponse]
// @Security     BearerAuth
// @Router       /payroll/imports [get]
func (h *PayrollHandler) List(c *gin.Context) {
	var filter payroll.ImportListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	imports, total, err := h.payrollService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, imports, total, filter.Page, filter.PageSize)
}

// Process godoc
// @ID           processPayrollImport
// @Summary      Process a validated import
// @Description  Marks the valid rows processed and totals the import
// @Tags         payroll
// @Produce      json
// @Param        id path string true "Import ID" format(uuid)
// @Success      200 {object} APIResponse[payroll.ImportResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payroll/imports/{id}/process [post]
func (h *PayrollHandler) Process(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	imp, err := h.payrollService.Process(c.Request.Context(), tenantID, id, userID)
	h.respond(c, imp, err)
}

// Reconcile godoc
// @ID           reconcilePayrollImport
// @Summary      Compare imported hours with approved timesheets
// @Tags         payroll
// @Produce      json
// @Param        id path string true "Import ID" format(uuid)
// @Success      200 {object} APIResponse[payroll.ReconcileResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payroll/imports/{id}/reconcile [get]
func (h *PayrollHandler) Reconcile(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	result, err := h.payrollService.Reconcile(c.Request.Context(), tenantID, id)
	h.respond(c, result, err)
}

// Delete godoc
// @ID           deletePayrollImport
// @Summary      Delete an unprocessed import
// @Tags         payroll
// @Param        id path string true "Import ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payroll/imports/{id} [delete]
func (h *PayrollHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.payrollService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
