package identity

import (
	"github.com/carehours/backend/internal/domain/shared"
)

// Aggregate type names
const (
	AggregateTypeUser = "User"
	AggregateTypeRole = "Role"
)

// User and role event types
const (
	EventTypeUserCreated            = "user.created"
	EventTypeUserPasswordChanged    = "user.password_changed"
	EventTypeUserRolesChanged       = "user.roles_changed"
	EventTypeUserActivated          = "user.activated"
	EventTypeUserDeactivated        = "user.deactivated"
	EventTypeUserLocked             = "user.locked"
	EventTypeUserDeleted            = "user.deleted"
	EventTypeRoleCreated            = "role.created"
	EventTypeRolePermissionsChanged = "role.permissions_changed"
	EventTypeRoleDeleted            = "role.deleted"
)

// UserEvent describes a change to a user
type UserEvent struct {
	shared.BaseDomainEvent
	Username string     `json:"username"`
	Status   UserStatus `json:"status"`
	RoleIDs  []string   `json:"role_ids,omitempty"`
}

// NewUserEvent builds a UserEvent of the given type
func NewUserEvent(eventType string, u *User) *UserEvent {
	roleIDs := make([]string, len(u.RoleIDs))
	for i, id := range u.RoleIDs {
		roleIDs[i] = id.String()
	}
	return &UserEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeUser, u.ID, u.TenantID),
		Username:        u.Username,
		Status:          u.Status,
		RoleIDs:         roleIDs,
	}
}

// RoleEvent describes a change to a role
type RoleEvent struct {
	shared.BaseDomainEvent
	Code        string   `json:"code"`
	Permissions []string `json:"permissions,omitempty"`
}

// NewRoleEvent builds a RoleEvent of the given type
func NewRoleEvent(eventType string, r *Role) *RoleEvent {
	return &RoleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeRole, r.ID, r.TenantID),
		Code:            r.Code,
		Permissions:     r.PermissionCodes(),
	}
}
