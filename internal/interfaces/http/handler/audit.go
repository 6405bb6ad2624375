package handler

import (
	"time"

	"github.com/carehours/backend/internal/application/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler serves the read-only audit trail
type AuditHandler struct {
	BaseHandler
	auditService *audit.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *audit.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

type auditQuery struct {
	EntityType string     `form:"entity_type"`
	EntityID   string     `form:"entity_id" binding:"omitempty,uuid"`
	ActorID    string     `form:"actor_id" binding:"omitempty,uuid"`
	Action     string     `form:"action"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// List godoc
// @ID           listAuditLogs
// @Summary      List audit entries
// @Description  Newest first
// @Tags         audit
// @Produce      json
// @Param        entity_type query string false "Entity type, e.g. invoice"
// @Param        entity_id   query string false "Entity ID" format(uuid)
// @Param        actor_id    query string false "Actor user ID" format(uuid)
// @Param        action      query string false "Action, e.g. invoice.sent"
// @Param        from        query string false "From (RFC 3339)"
// @Param        to          query string false "To (RFC 3339)"
// @Param        page        query int    false "Page" default(1)
// @Param        page_size   query int    false "Page size" default(50)
// @Success      200 {object} APIResponse[[]audit.AuditLogResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var q auditQuery
	if !h.bindQuery(c, &q) {
		return
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		h.BadRequest(c, "from must not be after to")
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	logs, total, err := h.auditService.List(c.Request.Context(), tenantID, audit.AuditLogListFilter{
		EntityType: q.EntityType,
		EntityID:   optionalUUID(q.EntityID),
		ActorID:    optionalUUID(q.ActorID),
		Action:     q.Action,
		From:       q.From,
		To:         q.To,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, logs, total, q.Page, q.PageSize)
}
