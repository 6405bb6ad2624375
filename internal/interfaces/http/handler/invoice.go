package handler

import (
	"github.com/carehours/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice HTTP requests
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billing.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *billing.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Generate godoc
// @ID           generateInvoice
// @Summary      Generate an invoice from approved timesheets
// @Description  Bills every approved, billable and uninvoiced entry of the client in the period
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body billing.GenerateInvoiceRequest true "Client and period"
// @Success      201 {object} APIResponse[billing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/generate [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req billing.GenerateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.Generate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[billing.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	inv, err := h.invoiceService.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, inv, err)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        search       query string false "Invoice number"
// @Param        client_id    query string false "Client ID" format(uuid)
// @Param        insurance_id query string false "Insurance ID" format(uuid)
// @Param        status       query string false "Status" Enums(draft, sent, paid, void)
// @Param        issue_from   query string false "Issued on or after (YYYY-MM-DD)"
// @Param        issue_to     query string false "Issued on or before (YYYY-MM-DD)"
// @Param        page         query int    false "Page" default(1)
// @Param        page_size    query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]billing.InvoiceResponse]
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter billing.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Update the recipient and notes of a draft invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Invoice ID" format(uuid)
// @Param        request body billing.UpdateInvoiceRequest true "Changes"
// @Success      200 {object} APIResponse[billing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	var req billing.UpdateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	inv, err := h.invoiceService.Update(c.Request.Context(), tenantID, id, req)
	h.respond(c, inv, err)
}

// AddLine godoc
// @ID           addInvoiceLine
// @Summary      Add a manual line to a draft invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Invoice ID" format(uuid)
// @Param        request body billing.AddLineRequest true "Line"
// @Success      200 {object} APIResponse[billing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/lines [post]
func (h *InvoiceHandler) AddLine(c *gin.Context) {
	var req billing.AddLineRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	inv, err := h.invoiceService.AddLine(c.Request.Context(), tenantID, id, req)
	h.respond(c, inv, err)
}

// RemoveLine godoc
// @ID           removeInvoiceLine
// @Summary      Remove a line from a draft invoice
// @Description  A line billed from a timesheet entry releases that entry
// @Tags         invoices
// @Produce      json
// @Param        id      path string true "Invoice ID" format(uuid)
// @Param        line_id path string true "Line ID" format(uuid)
// @Success      200 {object} APIResponse[billing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/lines/{line_id} [delete]
func (h *InvoiceHandler) RemoveLine(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	lineID, ok := h.pathID(c, "line_id")
	if !ok {
		return
	}
	inv, err := h.invoiceService.RemoveLine(c.Request.Context(), tenantID, id, lineID)
	h.respond(c, inv, err)
}

// Send godoc
// @ID           sendInvoice
// @Summary      Send an invoice
// @Description  Issues the invoice, renders its PDF and queues the email. Delivery problems are reported as a warning.
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[billing.SendInvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	result, err := h.invoiceService.Send(c.Request.Context(), tenantID, id)
	h.respond(c, result, err)
}

// RecordPayment godoc
// @ID           recordInvoicePayment
// @Summary      Record a payment
// @Description  The invoice is paid once the cumulative amount reaches the total. Overpayment is rejected.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Invoice ID" format(uuid)
// @Param        request body billing.RecordPaymentRequest true "Amount"
// @Success      200 {object} APIResponse[billing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	var req billing.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	inv, err := h.invoiceService.RecordPayment(c.Request.Context(), tenantID, id, req)
	h.respond(c, inv, err)
}

// Void godoc
// @ID           voidInvoice
// @Summary      Void an invoice
// @Description  Releases the billed timesheet entries
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Invoice ID" format(uuid)
// @Param        request body billing.VoidRequest true "Reason"
// @Success      200 {object} APIResponse[billing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/void [post]
func (h *InvoiceHandler) Void(c *gin.Context) {
	var req billing.VoidRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	inv, err := h.invoiceService.Void(c.Request.Context(), tenantID, id, req)
	h.respond(c, inv, err)
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete a draft invoice
// @Tags         invoices
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.invoiceService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
