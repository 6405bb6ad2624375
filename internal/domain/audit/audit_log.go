package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity types recorded by audit entries that do not come from aggregates
const (
	EntityTypeSession = "Session"
)

// Actions recorded directly by services
const (
	ActionLogin        = "auth.login"
	ActionLoginFailed  = "auth.login_failed"
	ActionLogout       = "auth.logout"
	ActionTokenRefresh = "auth.refresh"
)

// AuditLog is an append-only record of something that happened
type AuditLog struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Details    map[string]any
	IPAddress  string
	UserAgent  string
	RequestID  string
	CreatedAt  time.Time
}

// Entry describes an audit record to write
type Entry struct {
	TenantID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Details    map[string]any
	IPAddress  string
	UserAgent  string
	RequestID  string
	OccurredAt time.Time
}

// NewAuditLog builds an audit record. Action is lowercased.
func NewAuditLog(e Entry) *AuditLog {
	at := e.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return &AuditLog{
		ID:         uuid.New(),
		TenantID:   e.TenantID,
		ActorID:    e.ActorID,
		Action:     strings.ToLower(strings.TrimSpace(e.Action)),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    details,
		IPAddress:  e.IPAddress,
		UserAgent:  truncate(e.UserAgent, 500),
		RequestID:  e.RequestID,
		CreatedAt:  at,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
