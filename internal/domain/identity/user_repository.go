package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserFilter defines the filter criteria for user queries
type UserFilter struct {
	Keyword string
	Status  *UserStatus
	RoleID  *uuid.UUID
	Page    int
	Limit   int
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*User, error)
	// FindByUsernameAnyTenant is used by login when no tenant is supplied
	FindByUsernameAnyTenant(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter UserFilter) ([]*User, int64, error)
	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error)
	// SaveUserRoles replaces the role assignments of the user
	SaveUserRoles(ctx context.Context, user *User) error
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
