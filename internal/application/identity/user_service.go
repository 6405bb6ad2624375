package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user management operations
type UserService struct {
	userRepo     identity.UserRepository
	roleRepo     identity.RoleRepository
	providerRepo directory.ProviderRepository
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	providerRepo directory.ProviderRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		providerRepo: providerRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, tenantID, strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username already exists")
	}

	user, err := identity.NewUser(tenantID, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != "" {
		if err := user.UpdateProfile(user.Email, req.DisplayName); err != nil {
			return nil, err
		}
	}
	if req.ProviderID != nil {
		if err := s.ensureProvider(ctx, tenantID, *req.ProviderID); err != nil {
			return nil, err
		}
		user.LinkProvider(req.ProviderID)
	}
	if len(req.RoleIDs) > 0 {
		if err := s.ensureRoles(ctx, tenantID, req.RoleIDs); err != nil {
			return nil, err
		}
		if err := user.SetRoles(req.RoleIDs); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.publish(ctx, user)

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("tenant_id", tenantID.String()))
	resp := ToUserResponse(user)
	return &resp, nil
}

// GetByID returns a user
func (s *UserService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, f UserListFilter) ([]UserResponse, int64, error) {
	filter := identity.UserFilter{Keyword: f.Search, Page: f.Page, Limit: f.PageSize}
	if f.Status != "" {
		status := identity.UserStatus(f.Status)
		filter.Status = &status
	}
	if f.RoleID != "" {
		roleID, err := uuid.Parse(f.RoleID)
		if err != nil {
			return nil, 0, shared.InvalidInputf("invalid role_id")
		}
		filter.RoleID = &roleID
	}

	users, total, err := s.userRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = ToUserResponse(u)
	}
	return out, total, nil
}

// Update changes profile fields and the provider link
func (s *UserService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	return s.mutate(ctx, tenantID, id, func(user *identity.User) error {
		email, name := user.Email, user.DisplayName
		if req.Email != nil {
			email = *req.Email
		}
		if req.DisplayName != nil {
			name = *req.DisplayName
		}
		if err := user.UpdateProfile(email, name); err != nil {
			return err
		}
		switch {
		case req.UnlinkProvider:
			user.LinkProvider(nil)
		case req.ProviderID != nil:
			if err := s.ensureProvider(ctx, tenantID, *req.ProviderID); err != nil {
				return err
			}
			user.LinkProvider(req.ProviderID)
		}
		return nil
	})
}

// AssignRoles replaces the roles of a user
func (s *UserService) AssignRoles(ctx context.Context, tenantID, id uuid.UUID, req AssignRolesRequest) (*UserResponse, error) {
	if err := s.ensureRoles(ctx, tenantID, req.RoleIDs); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := user.SetRoles(req.RoleIDs); err != nil {
		return nil, err
	}
	if err := s.userRepo.SaveUserRoles(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user roles: %w", err)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.publish(ctx, user)
	resp := ToUserResponse(user)
	return &resp, nil
}

// Activate re-enables a user
func (s *UserService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*UserResponse, error) {
	return s.mutate(ctx, tenantID, id, func(u *identity.User) error { return u.Activate() })
}

// Deactivate disables a user. A user cannot deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, tenantID, id, actorID uuid.UUID) (*UserResponse, error) {
	if id == actorID {
		return nil, shared.InvalidStatef("you cannot deactivate your own account")
	}
	return s.mutate(ctx, tenantID, id, func(u *identity.User) error { return u.Deactivate() })
}

// Unlock clears a login lock
func (s *UserService) Unlock(ctx context.Context, tenantID, id uuid.UUID) (*UserResponse, error) {
	return s.mutate(ctx, tenantID, id, func(u *identity.User) error { return u.Unlock() })
}

// ResetPassword sets a new password on behalf of the user
func (s *UserService) ResetPassword(ctx context.Context, tenantID, id uuid.UUID, req ResetPasswordRequest) (*UserResponse, error) {
	return s.mutate(ctx, tenantID, id, func(u *identity.User) error { return u.SetPassword(req.NewPassword) })
}

// Delete soft-deletes a user. A user cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, tenantID, id, actorID uuid.UUID) error {
	if id == actorID {
		return shared.InvalidStatef("you cannot delete your own account")
	}
	_, err := s.mutate(ctx, tenantID, id, func(u *identity.User) error {
		u.Delete()
		return nil
	})
	return err
}

func (s *UserService) mutate(ctx context.Context, tenantID, id uuid.UUID, apply func(*identity.User) error) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.publish(ctx, user)
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) ensureRoles(ctx context.Context, tenantID uuid.UUID, roleIDs []uuid.UUID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	roles, err := s.roleRepo.FindByIDs(ctx, tenantID, roleIDs)
	if err != nil {
		return fmt.Errorf("failed to load roles: %w", err)
	}
	found := make(map[uuid.UUID]bool, len(roles))
	for _, r := range roles {
		found[r.ID] = true
	}
	for _, id := range roleIDs {
		if !found[id] {
			return shared.InvalidInputf("role %s not found", id)
		}
	}
	return nil
}

func (s *UserService) ensureProvider(ctx context.Context, tenantID, providerID uuid.UUID) error {
	if s.providerRepo == nil {
		return nil
	}
	if _, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, providerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.InvalidInputf("provider %s not found", providerID)
		}
		return err
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	if err := shared.PublishAndClear(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}
