package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows an audit log listing
type Filter struct {
	EntityType string
	EntityID   *uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// Repository appends and lists audit entries
type Repository interface {
	Append(ctx context.Context, log *AuditLog) error
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]AuditLog, int64, error)
}
