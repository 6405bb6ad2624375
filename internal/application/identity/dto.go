package identity

import (
	"time"

	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	TenantID  *uuid.UUID // optional; without it the username must be unique across tenants
	Username  string
	Password  string
	IP        string
	UserAgent string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Tokens auth.TokenPair `json:"tokens"`
	User   UserInfo       `json:"user"`
}

// UserInfo is the authenticated user as seen by the client
type UserInfo struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Email       string      `json:"email,omitempty"`
	ProviderID  *uuid.UUID  `json:"provider_id,omitempty"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
	Permissions []string    `json:"permissions"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput carries the tokens to revoke
type LogoutInput struct {
	AccessToken  string
	RefreshToken string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// CreateUserRequest creates a login
type CreateUserRequest struct {
	Username    string      `json:"username" binding:"required,min=3,max=100"`
	Password    string      `json:"password" binding:"required,min=8,max=72"`
	Email       string      `json:"email" binding:"omitempty,email,max=200"`
	DisplayName string      `json:"display_name" binding:"max=200"`
	ProviderID  *uuid.UUID  `json:"provider_id"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
}

// UpdateUserRequest changes profile fields. Nil fields are left alone.
type UpdateUserRequest struct {
	Email       *string    `json:"email" binding:"omitempty,email,max=200"`
	DisplayName *string    `json:"display_name" binding:"omitempty,max=200"`
	ProviderID  *uuid.UUID `json:"provider_id"`
	// UnlinkProvider clears the provider link
	UnlinkProvider bool `json:"unlink_provider"`
}

// AssignRolesRequest replaces a user's roles
type AssignRolesRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids" binding:"required"`
}

// ResetPasswordRequest sets a password without the old one
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// UserListFilter filters the user list
type UserListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active locked deactivated"`
	RoleID   string `form:"role_id" binding:"omitempty,uuid"`
}

// UserResponse represents a user
type UserResponse struct {
	ID             uuid.UUID   `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email,omitempty"`
	DisplayName    string      `json:"display_name"`
	Status         string      `json:"status"`
	ProviderID     *uuid.UUID  `json:"provider_id,omitempty"`
	RoleIDs        []uuid.UUID `json:"role_ids"`
	FailedAttempts int         `json:"failed_attempts"`
	LockedUntil    *time.Time  `json:"locked_until,omitempty"`
	LastLoginAt    *time.Time  `json:"last_login_at,omitempty"`
	LastLoginIP    string      `json:"last_login_ip,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Version        int         `json:"version"`
}

// CreateRoleRequest creates a role
type CreateRoleRequest struct {
	Code        string   `json:"code" binding:"required,max=50"`
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleRequest changes a role
type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	IsEnabled   *bool  `json:"is_enabled"`
}

// SetPermissionsRequest replaces a role's permissions
type SetPermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}

// RoleListFilter filters the role list
type RoleListFilter struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search    string `form:"search"`
	IsEnabled *bool  `form:"is_enabled"`
}

// RoleResponse represents a role
type RoleResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsSystem    bool      `json:"is_system"`
	IsEnabled   bool      `json:"is_enabled"`
	Permissions []string  `json:"permissions"`
	UserCount   int64     `json:"user_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// ToUserResponse converts a domain user
func ToUserResponse(u *identity.User) UserResponse {
	roleIDs := u.RoleIDs
	if roleIDs == nil {
		roleIDs = []uuid.UUID{}
	}
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Status:         string(u.Status),
		ProviderID:     u.ProviderID,
		RoleIDs:        roleIDs,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
		LastLoginAt:    u.LastLoginAt,
		LastLoginIP:    u.LastLoginIP,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
		Version:        u.Version,
	}
}

// ToRoleResponse converts a domain role
func ToRoleResponse(r *identity.Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		IsEnabled:   r.IsEnabled,
		Permissions: r.PermissionCodes(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
}

func toUserInfo(u *identity.User, permissions []string) UserInfo {
	roleIDs := u.RoleIDs
	if roleIDs == nil {
		roleIDs = []uuid.UUID{}
	}
	return UserInfo{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		DisplayName: u.DisplayNameOrUsername(),
		Email:       u.Email,
		ProviderID:  u.ProviderID,
		RoleIDs:     roleIDs,
		Permissions: permissions,
	}
}
