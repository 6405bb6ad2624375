package identity

import (
	"regexp"
	"strings"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
)

var roleCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Role groups permissions that can be assigned to users
type Role struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Code        string
	Name        string
	Description string
	IsSystem    bool
	IsEnabled   bool
	Permissions []Permission // stored in role_permissions, loaded by the repository
}

// NewRole creates an enabled, non-system role
func NewRole(tenantID uuid.UUID, code, name string) (*Role, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validateRoleCode(code); err != nil {
		return nil, err
	}
	if err := validateRoleName(name); err != nil {
		return nil, err
	}

	role := &Role{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		IsEnabled:           true,
		Permissions:         make([]Permission, 0),
	}
	role.AddDomainEvent(NewRoleEvent(EventTypeRoleCreated, role))
	return role, nil
}

// NewSystemRole creates a role that cannot be deleted
func NewSystemRole(tenantID uuid.UUID, code, name string) (*Role, error) {
	role, err := NewRole(tenantID, code, name)
	if err != nil {
		return nil, err
	}
	role.IsSystem = true
	return role, nil
}

// Update changes name and description
func (r *Role) Update(name, description string) error {
	if err := validateRoleName(name); err != nil {
		return err
	}
	r.Name = strings.TrimSpace(name)
	r.Description = strings.TrimSpace(description)
	r.Touch()
	r.IncrementVersion()
	return nil
}

// SetEnabled toggles the role; system roles stay enabled
func (r *Role) SetEnabled(enabled bool) error {
	if r.IsSystem && !enabled {
		return shared.NewDomainError("SYSTEM_ROLE", "System roles cannot be disabled")
	}
	r.IsEnabled = enabled
	r.Touch()
	r.IncrementVersion()
	return nil
}

// GrantPermission adds a permission if not already present
func (r *Role) GrantPermission(perm Permission) error {
	if perm.Code == "" {
		return shared.NewDomainError("INVALID_PERMISSION", "Permission cannot be empty")
	}
	for _, p := range r.Permissions {
		if p.Code == perm.Code {
			return shared.NewDomainError("PERMISSION_EXISTS", "Role already has permission "+perm.Code)
		}
	}
	r.Permissions = append(r.Permissions, perm)
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewRoleEvent(EventTypeRolePermissionsChanged, r))
	return nil
}

// RevokePermission removes a permission by code
func (r *Role) RevokePermission(code string) error {
	kept := make([]Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if p.Code != code {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(r.Permissions) {
		return shared.NewDomainError("PERMISSION_NOT_FOUND", "Role does not have permission "+code)
	}
	r.Permissions = kept
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewRoleEvent(EventTypeRolePermissionsChanged, r))
	return nil
}

// SetPermissions replaces all permissions from a list of codes
func (r *Role) SetPermissions(codes []string) error {
	perms := make([]Permission, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		perm, err := NewPermissionFromCode(code)
		if err != nil {
			return err
		}
		if seen[perm.Code] {
			continue
		}
		seen[perm.Code] = true
		perms = append(perms, perm)
	}
	r.Permissions = perms
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewRoleEvent(EventTypeRolePermissionsChanged, r))
	return nil
}

// HasPermission checks whether the role grants the code, wildcards included
func (r *Role) HasPermission(code string) bool {
	for _, p := range r.Permissions {
		if p.Grants(code) {
			return true
		}
	}
	return false
}

// PermissionCodes returns the raw codes of the role
func (r *Role) PermissionCodes() []string {
	codes := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		codes[i] = p.Code
	}
	return codes
}

// Delete soft-deletes a non-system role
func (r *Role) Delete() error {
	if r.IsSystem {
		return shared.NewDomainError("SYSTEM_ROLE", "System roles cannot be deleted")
	}
	r.MarkDeleted()
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewRoleEvent(EventTypeRoleDeleted, r))
	return nil
}

func validateRoleCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_ROLE_CODE", "Role code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_ROLE_CODE", "Role code cannot exceed 50 characters")
	}
	if !roleCodePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_ROLE_CODE", "Role code must start with a letter and contain only letters, numbers and underscores")
	}
	return nil
}

func validateRoleName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_ROLE_NAME", "Role name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_ROLE_NAME", "Role name cannot exceed 100 characters")
	}
	return nil
}
