package handler

import (
	"github.com/carehours/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// CommunityHandler handles community class and community invoice HTTP requests
type CommunityHandler struct {
	BaseHandler
	communityService *billing.CommunityService
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(communityService *billing.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

// CreateClass godoc
// @ID           createCommunityClass
// @Summary      Schedule a community class
// @Tags         community-classes
// @Accept       json
// @Produce      json
// @Param        request body billing.CreateClassRequest true "Class"
// @Success      201 {object} APIResponse[billing.ClassResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes [post]
func (h *CommunityHandler) CreateClass(c *gin.Context) {
	var req billing.CreateClassRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	class, err := h.communityService.CreateClass(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, class)
}

// GetClass godoc
// @ID           getCommunityClassById
// @Summary      Get a community class
// @Tags         community-classes
// @Produce      json
// @Param        id path string true "Class ID" format(uuid)
// @Success      200 {object} APIResponse[billing.ClassResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes/{id} [get]
func (h *CommunityHandler) GetClass(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	class, err := h.communityService.GetClass(c.Request.Context(), tenantID, id)
	h.respond(c, class, err)
}

// ListClasses godoc
// @ID           listCommunityClasses
// @Summary      List community classes
// @Tags         community-classes
// @Produce      json
// @Param        search         query string false "Name"
// @Param        status         query string false "Status" Enums(scheduled, completed, cancelled)
// @Param        instructor_id  query string false "Instructor (provider) ID" format(uuid)
// @Param        scheduled_from query string false "Scheduled on or after (YYYY-MM-DD)"
// @Param        scheduled_to   query string false "Scheduled on or before (YYYY-MM-DD)"
// @Param        page           query int    false "Page" default(1)
// @Param        page_size      query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]billing.ClassResponse]
// @Security     BearerAuth
// @Router       /community-classes [get]
func (h *CommunityHandler) ListClasses(c *gin.Context) {
	var filter billing.ClassListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	classes, total, err := h.communityService.ListClasses(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, classes, total, filter.Page, filter.PageSize)
}

// UpdateClass godoc
// @ID           updateCommunityClass
// @Summary      Update a scheduled class
// @Tags         community-classes
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Class ID" format(uuid)
// @Param        request body billing.UpdateClassRequest true "Class"
// @Success      200 {object} APIResponse[billing.ClassResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes/{id} [put]
func (h *CommunityHandler) UpdateClass(c *gin.Context) {
	var req billing.UpdateClassRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	class, err := h.communityService.UpdateClass(c.Request.Context(), tenantID, id, req)
	h.respond(c, class, err)
}

// Enroll godoc
// @ID           enrollCommunityClass
// @Summary      Enroll a client
// @Description  Rejected when the class is full, not scheduled, or the client is already enrolled
// @Tags         community-classes
// @Accept       json
// @Produce      json
// @Param        id      path string                true "Class ID" format(uuid)
// @Param        request body billing.EnrollRequest true "Client"
// @Success      200 {object} APIResponse[billing.ClassResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes/{id}/attendees [post]
func (h *CommunityHandler) Enroll(c *gin.Context) {
	var req billing.EnrollRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	class, err := h.communityService.Enroll(c.Request.Context(), tenantID, id, req)
	h.respond(c, class, err)
}

// Unenroll godoc
// @ID           unenrollCommunityClass
// @Summary      Remove a client from a class
// @Tags         community-classes
// @Produce      json
// @Param        id        path string true "Class ID" format(uuid)
// @Param        client_id path string true "Client ID" format(uuid)
// @Success      200 {object} APIResponse[billing.ClassResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes/{id}/attendees/{client_id} [delete]
func (h *CommunityHandler) Unenroll(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	clientID, ok := h.pathID(c, "client_id")
	if !ok {
		return
	}
	class, err := h.communityService.Unenroll(c.Request.Context(), tenantID, id, clientID)
	h.respond(c, class, err)
}

// CompleteClass godoc
// @ID           completeCommunityClass
// @Summary      Mark a class completed
// @Tags         community-classes
// @Produce      json
// @Param        id path string true "Class ID" format(uuid)
// @Success      200 {object} APIResponse[billing.ClassResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes/{id}/complete [post]
func (h *CommunityHandler) CompleteClass(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	class, err := h.communityService.CompleteClass(c.Request.Context(), tenantID, id)
	h.respond(c, class, err)
}

// CancelClass godoc
// @ID           cancelCommunityClass
// @Summary      Cancel a class
// @Tags         community-classes
// @Produce      json
// @Param        id path string true "Class ID" format(uuid)
// @Success      200 {object} APIResponse[billing.ClassResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes/{id}/cancel [post]
func (h *CommunityHandler) CancelClass(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	class, err := h.communityService.CancelClass(c.Request.Context(), tenantID, id)
	h.respond(c, class, err)
}

// DeleteClass godoc
// @ID           deleteCommunityClass
// @Summary      Delete a class
// @Tags         community-classes
// @Param        id path string true "Class ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes/{id} [delete]
func (h *CommunityHandler) DeleteClass(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.communityService.DeleteClass(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GenerateInvoices godoc
// @ID           generateCommunityInvoices
// @Summary      Invoice the attendees of a completed class
// @Description  Creates one draft per attendee without a live invoice for the class
// @Tags         community-invoices
// @Produce      json
// @Param        id path string true "Class ID" format(uuid)
// @Success      201 {object} APIResponse[[]billing.CommunityInvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-classes/{id}/invoices [post]
func (h *CommunityHandler) GenerateInvoices(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	invoices, err := h.communityService.GenerateInvoices(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoices)
}

// GetInvoice godoc
// @ID           getCommunityInvoiceById
// @Summary      Get a community invoice
// @Tags         community-invoices
// @Produce      json
// @Param        id path string true "Community invoice ID" format(uuid)
// @Success      200 {object} APIResponse[billing.CommunityInvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-invoices/{id} [get]
func (h *CommunityHandler) GetInvoice(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	inv, err := h.communityService.GetInvoice(c.Request.Context(), tenantID, id)
	h.respond(c, inv, err)
}

// ListInvoices godoc
// @ID           listCommunityInvoices
// @Summary      List community invoices
// @Tags         community-invoices
// @Produce      json
// @Param        search    query string false "Invoice number"
// @Param        class_id  query string false "Class ID" format(uuid)
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        status    query string false "Status" Enums(draft, sent, paid, void)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]billing.CommunityInvoiceResponse]
// @Security     BearerAuth
// @Router       /community-invoices [get]
func (h *CommunityHandler) ListInvoices(c *gin.Context) {
	var filter billing.CommunityInvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	invoices, total, err := h.communityService.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// SendInvoice godoc
// @ID           sendCommunityInvoice
// @Summary      Send a community invoice
// @Tags         community-invoices
// @Produce      json
// @Param        id path string true "Community invoice ID" format(uuid)
// @Success      200 {object} APIResponse[billing.SendCommunityInvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-invoices/{id}/send [post]
func (h *CommunityHandler) SendInvoice(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	result, err := h.communityService.SendInvoice(c.Request.Context(), tenantID, id)
	h.respond(c, result, err)
}

// RecordInvoicePayment godoc
// @ID           recordCommunityInvoicePayment
// @Summary      Record a community invoice payment
// @Tags         community-invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Community invoice ID" format(uuid)
// @Param        request body billing.RecordPaymentRequest true "Amount"
// @Success      200 {object} APIResponse[billing.CommunityInvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-invoices/{id}/payments [post]
func (h *CommunityHandler) RecordInvoicePayment(c *gin.Context) {
	var req billing.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	inv, err := h.communityService.RecordInvoicePayment(c.Request.Context(), tenantID, id, req)
	h.respond(c, inv, err)
}

// VoidInvoice godoc
// @ID           voidCommunityInvoice
// @Summary      Void a community invoice
// @Tags         community-invoices
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Community invoice ID" format(uuid)
// @Param        request body billing.VoidRequest true "Reason"
// @Success      200 {object} APIResponse[billing.CommunityInvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-invoices/{id}/void [post]
func (h *CommunityHandler) VoidInvoice(c *gin.Context) {
	var req billing.VoidRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	inv, err := h.communityService.VoidInvoice(c.Request.Context(), tenantID, id, req)
	h.respond(c, inv, err)
}

// DeleteInvoice godoc
// @ID           deleteCommunityInvoice
// @Summary      Delete a draft community invoice
// @Tags         community-invoices
// @Param        id path string true "Community invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /community-invoices/{id} [delete]
func (h *CommunityHandler) DeleteInvoice(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.communityService.DeleteInvoice(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
