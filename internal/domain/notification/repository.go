package notification

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EmailQueueRepository defines persistence for the email queue.
// Filter keys: "status", "template_key".
type EmailQueueRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*EmailQueueItem, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]EmailQueueItem, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, item *EmailQueueItem) error
	// ClaimDue atomically moves up to limit due pending items of any tenant to
	// sending and returns them. Items left sending for longer than lease are
	// reclaimed first; a zero lease disables that.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]EmailQueueItem, error)
	// CountByStatus returns queue depth per status across tenants
	CountByStatus(ctx context.Context) (map[EmailStatus]int64, error)
}
