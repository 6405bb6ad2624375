package handler

import (
	"github.com/carehours/backend/internal/application/timesheet"
	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TimesheetHandler handles timesheet HTTP requests
type TimesheetHandler struct {
	BaseHandler
	timesheetService *timesheet.TimesheetService
}

// NewTimesheetHandler creates a new timesheet handler
func NewTimesheetHandler(timesheetService *timesheet.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheetService: timesheetService}
}

// actor builds the timesheet actor from the JWT claims
func (h *TimesheetHandler) actor(c *gin.Context) (timesheet.Actor, bool) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return timesheet.Actor{}, false
	}
	return timesheet.Actor{
		UserID:     claims.UserUUID(),
		ProviderID: claims.ProviderUUID(),
		CanApprove: claims.HasPermission(identity.ResourceTimesheet + ":" + identity.ActionApprove),
	}, true
}

// scope resolves tenant, actor and the :id path parameter
func (h *TimesheetHandler) scope(c *gin.Context) (uuid.UUID, timesheet.Actor, uuid.UUID, bool) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return uuid.Nil, timesheet.Actor{}, uuid.Nil, false
	}
	actor, ok := h.actor(c)
	return tenantID, actor, id, ok
}

// Create godoc
// @ID           createTimesheet
// @Summary      Create a timesheet
// @Description  Provider-linked users may only create timesheets for their own provider
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Param        request body timesheet.CreateTimesheetRequest true "Timesheet"
// @Success      201 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets [post]
func (h *TimesheetHandler) Create(c *gin.Context) {
	var req timesheet.CreateTimesheetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	ts, err := h.timesheetService.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ts)
}

// GetByID godoc
// @ID           getTimesheetById
// @Summary      Get a timesheet with entries
// @Tags         timesheets
// @Produce      json
// @Param        id path string true "Timesheet ID" format(uuid)
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id} [get]
func (h *TimesheetHandler) GetByID(c *gin.Context) {
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	ts, err := h.timesheetService.GetByID(c.Request.Context(), tenantID, actor, id)
	h.respond(c, ts, err)
}

// List godoc
// @ID           listTimesheets
// @Summary      List timesheets
// @Tags         timesheets
// @Produce      json
// @Param        search      query string false "Timesheet number"
// @Param        provider_id query string false "Provider ID" format(uuid)
// @Param        status      query string false "Status" Enums(draft, submitted, approved, rejected)
// @Param        from        query string false "Period overlaps from (YYYY-MM-DD)"
// @Param        to          query string false "Period overlaps to (YYYY-MM-DD)"
// @Param        page        query int    false "Page" default(1)
// @Param        page_size   query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]timesheet.TimesheetListItem]
// @Security     BearerAuth
// @Router       /timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	var filter timesheet.TimesheetListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	items, total, err := h.timesheetService.List(c.Request.Context(), tenantID, actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateTimesheet
// @Summary      Update a timesheet header
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Param        id      path string                           true "Timesheet ID" format(uuid)
// @Param        request body timesheet.UpdateTimesheetRequest true "Header"
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id} [put]
func (h *TimesheetHandler) Update(c *gin.Context) {
	var req timesheet.UpdateTimesheetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	ts, err := h.timesheetService.Update(c.Request.Context(), tenantID, actor, id, req)
	h.respond(c, ts, err)
}

// AddEntry godoc
// @ID           addTimesheetEntry
// @Summary      Add a service entry
// @Description  Allowed while the timesheet is draft or rejected
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Timesheet ID" format(uuid)
// @Param        request body timesheet.EntryRequest true "Entry"
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id}/entries [post]
func (h *TimesheetHandler) AddEntry(c *gin.Context) {
	var req timesheet.EntryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	ts, err := h.timesheetService.AddEntry(c.Request.Context(), tenantID, actor, id, req)
	h.respond(c, ts, err)
}

// UpdateEntry godoc
// @ID           updateTimesheetEntry
// @Summary      Replace a service entry
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Param        id       path string                 true "Timesheet ID" format(uuid)
// @Param        entry_id path string                 true "Entry ID" format(uuid)
// @Param        request  body timesheet.EntryRequest true "Entry"
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id}/entries/{entry_id} [put]
func (h *TimesheetHandler) UpdateEntry(c *gin.Context) {
	var req timesheet.EntryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	entryID, ok := h.pathID(c, "entry_id")
	if !ok {
		return
	}
	ts, err := h.timesheetService.UpdateEntry(c.Request.Context(), tenantID, actor, id, entryID, req)
	h.respond(c, ts, err)
}

// RemoveEntry godoc
// @ID           removeTimesheetEntry
// @Summary      Remove a service entry
// @Tags         timesheets
// @Produce      json
// @Param        id       path string true "Timesheet ID" format(uuid)
// @Param        entry_id path string true "Entry ID" format(uuid)
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id}/entries/{entry_id} [delete]
func (h *TimesheetHandler) RemoveEntry(c *gin.Context) {
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	entryID, ok := h.pathID(c, "entry_id")
	if !ok {
		return
	}
	ts, err := h.timesheetService.RemoveEntry(c.Request.Context(), tenantID, actor, id, entryID)
	h.respond(c, ts, err)
}

// Submit godoc
// @ID           submitTimesheet
// @Summary      Submit a timesheet for approval
// @Tags         timesheets
// @Produce      json
// @Param        id path string true "Timesheet ID" format(uuid)
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id}/submit [post]
func (h *TimesheetHandler) Submit(c *gin.Context) {
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	ts, err := h.timesheetService.Submit(c.Request.Context(), tenantID, actor, id)
	h.respond(c, ts, err)
}

// Approve godoc
// @ID           approveTimesheet
// @Summary      Approve a submitted timesheet
// @Description  Approvers cannot approve their own timesheet
// @Tags         timesheets
// @Produce      json
// @Param        id path string true "Timesheet ID" format(uuid)
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id}/approve [post]
func (h *TimesheetHandler) Approve(c *gin.Context) {
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	ts, err := h.timesheetService.Approve(c.Request.Context(), tenantID, actor, id)
	h.respond(c, ts, err)
}

// Reject godoc
// @ID           rejectTimesheet
// @Summary      Reject a submitted timesheet
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Param        id      path string                           true "Timesheet ID" format(uuid)
// @Param        request body timesheet.RejectTimesheetRequest true "Reason"
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id}/reject [post]
func (h *TimesheetHandler) Reject(c *gin.Context) {
	var req timesheet.RejectTimesheetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	ts, err := h.timesheetService.Reject(c.Request.Context(), tenantID, actor, id, req)
	h.respond(c, ts, err)
}

// Reopen godoc
// @ID           reopenTimesheet
// @Summary      Reopen an approved timesheet
// @Description  Only while none of its entries has been invoiced
// @Tags         timesheets
// @Produce      json
// @Param        id path string true "Timesheet ID" format(uuid)
// @Success      200 {object} APIResponse[timesheet.TimesheetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id}/reopen [post]
func (h *TimesheetHandler) Reopen(c *gin.Context) {
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	ts, err := h.timesheetService.Reopen(c.Request.Context(), tenantID, actor, id)
	h.respond(c, ts, err)
}

// Delete godoc
// @ID           deleteTimesheet
// @Summary      Delete a draft or rejected timesheet
// @Tags         timesheets
// @Param        id path string true "Timesheet ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timesheets/{id} [delete]
func (h *TimesheetHandler) Delete(c *gin.Context) {
	tenantID, actor, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.timesheetService.Delete(c.Request.Context(), tenantID, actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
