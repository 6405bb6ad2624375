package models

import (
	"encoding/json"
	"time"

	"github.com/carehours/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditLogModel is the persistence model for an AuditLog row.
// Rows are only ever inserted.
type AuditLogModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID     *uuid.UUID `gorm:"type:uuid;index"`
	Action      string     `gorm:"type:varchar(100);not null;index"`
	EntityType  string     `gorm:"type:varchar(50);index"`
	EntityID    *uuid.UUID `gorm:"type:uuid;index"`
	DetailsJSON string     `gorm:"column:details;type:jsonb;not null;default:'{}'"`
	IPAddress   string     `gorm:"column:ip_address;type:varchar(45)"`
	UserAgent   string     `gorm:"type:varchar(500)"`
	RequestID   string     `gorm:"type:varchar(64)"`
	CreatedAt   time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditLog.
func (m *AuditLogModel) ToDomain() *audit.AuditLog {
	details := make(map[string]any)
	if m.DetailsJSON != "" {
		_ = json.Unmarshal([]byte(m.DetailsJSON), &details)
	}
	return &audit.AuditLog{
		ID:         m.ID,
		TenantID:   m.TenantID,
		ActorID:    m.ActorID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Details:    details,
		IPAddress:  m.IPAddress,
		UserAgent:  m.UserAgent,
		RequestID:  m.RequestID,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditLogModelFromDomain creates a new persistence model from a domain AuditLog.
func AuditLogModelFromDomain(l *audit.AuditLog) (*AuditLogModel, error) {
	details := "{}"
	if len(l.Details) > 0 {
		data, err := json.Marshal(l.Details)
		if err != nil {
			return nil, err
		}
		details = string(data)
	}
	return &AuditLogModel{
		ID:          l.ID,
		TenantID:    l.TenantID,
		ActorID:     l.ActorID,
		Action:      l.Action,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		DetailsJSON: details,
		IPAddress:   l.IPAddress,
		UserAgent:   l.UserAgent,
		RequestID:   l.RequestID,
		CreatedAt:   l.CreatedAt,
	}, nil
}
