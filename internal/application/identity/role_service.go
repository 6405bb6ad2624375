package identity

import (
	"context"
	"fmt"

	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminRoleCode is the system role seeded with every permission
const AdminRoleCode = "ADMIN"

// RoleService handles role management operations
type RoleService struct {
	roleRepo  identity.RoleRepository
	userRepo  identity.UserRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewRoleService creates a new role service
func NewRoleService(
	roleRepo identity.RoleRepository,
	userRepo identity.UserRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		roleRepo:  roleRepo,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// Create creates a new role
func (s *RoleService) Create(ctx context.Context, tenantID uuid.UUID, req CreateRoleRequest) (*RoleResponse, error) {
	exists, err := s.roleRepo.ExistsByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check role code: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Role code already exists")
	}

	role, err := identity.NewRole(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		if err := role.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if len(req.Permissions) > 0 {
		if err := role.SetPermissions(req.Permissions); err != nil {
			return nil, err
		}
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	s.publish(ctx, role)

	s.logger.Info("Role created", zap.String("role_id", role.ID.String()), zap.String("code", role.Code))
	resp := ToRoleResponse(role)
	return &resp, nil
}

// GetByID returns a role with its user count
func (s *RoleService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*RoleResponse, error) {
	role, err := s.roleRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToRoleResponse(role)
	if resp.UserCount, err = s.roleRepo.CountUsersWithRole(ctx, role.ID); err != nil {
		s.logger.Warn("Failed to count role users", zap.String("role_id", role.ID.String()), zap.Error(err))
	}
	return &resp, nil
}

// List returns a page of roles
func (s *RoleService) List(ctx context.Context, tenantID uuid.UUID, f RoleListFilter) ([]RoleResponse, int64, error) {
	roles, total, err := s.roleRepo.FindAll(ctx, tenantID, identity.RoleFilter{
		Keyword:   f.Search,
		IsEnabled: f.IsEnabled,
		Page:      f.Page,
		Limit:     f.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}
	out := make([]RoleResponse, len(roles))
	for i, r := range roles {
		out[i] = ToRoleResponse(r)
	}
	return out, total, nil
}

// Update changes name, description and the enabled flag
func (s *RoleService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error) {
	return s.mutate(ctx, tenantID, id, func(r *identity.Role) error {
		if err := r.Update(req.Name, req.Description); err != nil {
			return err
		}
		if req.IsEnabled != nil {
			return r.SetEnabled(*req.IsEnabled)
		}
		return nil
	})
}

// SetPermissions replaces the permissions of a role
func (s *RoleService) SetPermissions(ctx context.Context, tenantID, id uuid.UUID, req SetPermissionsRequest) (*RoleResponse, error) {
	return s.mutate(ctx, tenantID, id, func(r *identity.Role) error {
		return r.SetPermissions(req.Permissions)
	})
}

// Delete soft-deletes a role. System roles and roles still assigned are kept.
func (s *RoleService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	role, err := s.roleRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	count, err := s.roleRepo.CountUsersWithRole(ctx, role.ID)
	if err != nil {
		return fmt.Errorf("failed to count role users: %w", err)
	}
	if count > 0 {
		return shared.InvalidStatef("role is assigned to %d user(s)", count)
	}
	if err := role.Delete(); err != nil {
		return err
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.publish(ctx, role)
	return nil
}

// Permissions lists every permission code a role can be granted
func (s *RoleService) Permissions() []string {
	return identity.AllPermissionCodes()
}

func (s *RoleService) mutate(ctx context.Context, tenantID, id uuid.UUID, apply func(*identity.Role) error) (*RoleResponse, error) {
	role, err := s.roleRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(role); err != nil {
		return nil, err
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.publish(ctx, role)
	resp := ToRoleResponse(role)
	return &resp, nil
}

func (s *RoleService) publish(ctx context.Context, role *identity.Role) {
	if err := shared.PublishAndClear(ctx, s.publisher, role); err != nil {
		s.logger.Warn("Failed to publish role events", zap.String("role_id", role.ID.String()), zap.Error(err))
	}
}
