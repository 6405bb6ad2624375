package audit

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/domain/audit"
	"github.com/carehours/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditLogResponse is an audit entry in API responses
type AuditLogResponse struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *uuid.UUID     `json:"entity_id,omitempty"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditLogListFilter is bound from the query string
type AuditLogListFilter struct {
	EntityType string     `form:"entity_type"`
	EntityID   *uuid.UUID `form:"entity_id"`
	ActorID    *uuid.UUID `form:"actor_id"`
	Action     string     `form:"action"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// AuditService writes and reads the audit trail
type AuditService struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo audit.Repository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record appends an entry. Actor, request ID and client details missing from
// the entry are taken from the request context.
func (s *AuditService) Record(ctx context.Context, entry audit.Entry) error {
	enrichFromContext(ctx, &entry)
	if entry.TenantID == uuid.Nil {
		s.logger.Warn("audit entry without tenant dropped", zap.String("action", entry.Action))
		return nil
	}
	return s.repo.Append(ctx, audit.NewAuditLog(entry))
}

// RecordQuietly is Record for callers that must not fail on audit errors
func (s *AuditService) RecordQuietly(ctx context.Context, entry audit.Entry) {
	if err := s.Record(ctx, entry); err != nil {
		logger.L(ctx).Error("failed to write audit entry", zap.String("action", entry.Action), zap.Error(err))
	}
}

// List returns a page of audit entries, newest first
func (s *AuditService) List(ctx context.Context, tenantID uuid.UUID, filter AuditLogListFilter) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.FindAllForTenant(ctx, tenantID, audit.Filter{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		ActorID:    filter.ActorID,
		Action:     filter.Action,
		From:       filter.From,
		To:         filter.To,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]AuditLogResponse, len(logs))
	for i := range logs {
		out[i] = toAuditLogResponse(&logs[i])
	}
	return out, total, nil
}

func enrichFromContext(ctx context.Context, entry *audit.Entry) {
	if entry.ActorID == nil {
		if id, err := uuid.Parse(logger.GetUserID(ctx)); err == nil {
			entry.ActorID = &id
		}
	}
	if entry.TenantID == uuid.Nil {
		if id, err := uuid.Parse(logger.GetTenantID(ctx)); err == nil {
			entry.TenantID = id
		}
	}
	if entry.RequestID == "" {
		entry.RequestID = logger.GetRequestID(ctx)
	}
	client := logger.GetClient(ctx)
	if entry.IPAddress == "" {
		entry.IPAddress = client.IP
	}
	if entry.UserAgent == "" {
		entry.UserAgent = client.UserAgent
	}
}

func toAuditLogResponse(l *audit.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:         l.ID,
		ActorID:    l.ActorID,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Details:    l.Details,
		IPAddress:  l.IPAddress,
		UserAgent:  l.UserAgent,
		RequestID:  l.RequestID,
		CreatedAt:  l.CreatedAt,
	}
}
