package handler

import (
	"errors"
	"net/http"

	"github.com/carehours/backend/internal/application/notification"
	"github.com/carehours/backend/internal/infrastructure/scheduler"
	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// JobRunner exposes the background job scheduler to the API
type JobRunner interface {
	TriggerManualRun(name string) error
	GetStatus() []scheduler.JobStatus
}

// EmailHandler handles email queue HTTP requests
type EmailHandler struct {
	BaseHandler
	emailService *notification.EmailService
	jobs         JobRunner
}

// NewEmailHandler creates a new email handler. jobs may be nil when the
// drainer is not running in this process.
func NewEmailHandler(emailService *notification.EmailService, jobs JobRunner) *EmailHandler {
	return &EmailHandler{emailService: emailService, jobs: jobs}
}

// Enqueue godoc
// @ID           enqueueEmail
// @Summary      Queue an email
// @Tags         emails
// @Accept       json
// @Produce      json
// @Param        request body notification.EnqueueEmailRequest true "Email"
// @Success      201 {object} APIResponse[notification.EmailResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /emails [post]
func (h *EmailHandler) Enqueue(c *gin.Context) {
	var req notification.EnqueueEmailRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	email, err := h.emailService.Enqueue(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, email)
}

// GetByID godoc
// @ID           getEmailById
// @Summary      Get a queued email
// @Tags         emails
// @Produce      json
// @Param        id path string true "Email ID" format(uuid)
// @Success      200 {object} APIResponse[notification.EmailResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /emails/{id} [get]
func (h *EmailHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	email, err := h.emailService.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, email, err)
}

// List godoc
// @ID           listEmails
// @Summary      List the email queue
// @Tags         emails
// @Produce      json
// @Param        status       query string false "Status" Enums(pending, sending, sent, failed, cancelled)
// @Param        template_key query string false "Template key"
// @Param        page         query int    false "Page" default(1)
// @Param        page_size    query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]notification.EmailResponse]
// @Security     BearerAuth
// @Router       /emails [get]
func (h *EmailHandler) List(c *gin.Context) {
	var filter notification.EmailListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	emails, total, err := h.emailService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, emails, total, filter.Page, filter.PageSize)
}

// Cancel godoc
// @ID           cancelEmail
// @Summary      Cancel a pending email
// @Tags         emails
// @Produce      json
// @Param        id path string true "Email ID" format(uuid)
// @Success      200 {object} APIResponse[notification.EmailResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /emails/{id}/cancel [post]
func (h *EmailHandler) Cancel(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	email, err := h.emailService.Cancel(c.Request.Context(), tenantID, id)
	h.respond(c, email, err)
}

// Retry godoc
// @ID           retryEmail
// @Summary      Requeue a failed email
// @Tags         emails
// @Produce      json
// @Param        id path string true "Email ID" format(uuid)
// @Success      200 {object} APIResponse[notification.EmailResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /emails/{id}/retry [post]
func (h *EmailHandler) Retry(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	email, err := h.emailService.Retry(c.Request.Context(), tenantID, id)
	h.respond(c, email, err)
}

// DrainStatus godoc
// @ID           getEmailDrainStatus
// @Summary      Background job status
// @Tags         emails
// @Produce      json
// @Success      200 {object} APIResponse[[]scheduler.JobStatus]
// @Security     BearerAuth
// @Router       /emails/drain [get]
func (h *EmailHandler) DrainStatus(c *gin.Context) {
	if h.jobs == nil {
		h.Success(c, []scheduler.JobStatus{})
		return
	}
	h.Success(c, h.jobs.GetStatus())
}

// Drain godoc
// @ID           triggerEmailDrain
// @Summary      Drain the email queue now
// @Description  Runs the drainer outside its schedule
// @Tags         emails
// @Produce      json
// @Success      202 {object} APIResponse[MessageData]
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /emails/drain [post]
func (h *EmailHandler) Drain(c *gin.Context) {
	if h.jobs == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Email drainer is not running")
		return
	}

	err := h.jobs.TriggerManualRun(notification.DrainJobName)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(MessageData{Message: "Email drain started"}))
	case errors.Is(err, scheduler.ErrJobRunning):
		h.Conflict(c, "Email drain is already running")
	case errors.Is(err, scheduler.ErrSchedulerNotRunning), errors.Is(err, scheduler.ErrJobNotFound):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Email drainer is not running")
	default:
		h.HandleError(c, err)
	}
}
