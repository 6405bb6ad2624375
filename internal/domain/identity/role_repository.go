package identity

import (
	"context"

	"github.com/google/uuid"
)

// RoleFilter defines the filter criteria for role queries
type RoleFilter struct {
	Keyword   string
	IsEnabled *bool
	Page      int
	Limit     int
}

// RoleRepository defines the interface for role persistence operations
type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Role, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Role, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Role, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter RoleFilter) ([]*Role, int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	CountUsersWithRole(ctx context.Context, roleID uuid.UUID) (int64, error)
}
