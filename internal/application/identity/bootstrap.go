package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BootstrapInput names the first administrator of a tenant
type BootstrapInput struct {
	TenantID uuid.UUID
	Username string
	Password string
	Email    string
}

// Bootstrapper seeds the ADMIN role and an admin login. Running it again is a no-op.
type Bootstrapper struct {
	userRepo identity.UserRepository
	roleRepo identity.RoleRepository
	logger   *zap.Logger
}

// NewBootstrapper creates a Bootstrapper
func NewBootstrapper(userRepo identity.UserRepository, roleRepo identity.RoleRepository, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{userRepo: userRepo, roleRepo: roleRepo, logger: logger}
}

// Run ensures the tenant has an ADMIN role and the configured admin user
func (b *Bootstrapper) Run(ctx context.Context, in BootstrapInput) error {
	role, err := b.roleRepo.FindByCode(ctx, in.TenantID, AdminRoleCode)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		role, err = identity.NewSystemRole(in.TenantID, AdminRoleCode, "Administrator")
		if err != nil {
			return err
		}
		if err := role.SetPermissions([]string{identity.Wildcard + ":" + identity.Wildcard}); err != nil {
			return err
		}
		if err := b.roleRepo.Create(ctx, role); err != nil {
			return fmt.Errorf("failed to create admin role: %w", err)
		}
		b.logger.Info("Admin role created", zap.String("tenant_id", in.TenantID.String()))
	case err != nil:
		return fmt.Errorf("failed to look up admin role: %w", err)
	}

	exists, err := b.userRepo.ExistsByUsername(ctx, in.TenantID, in.Username)
	if err != nil {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
	if exists {
		return nil
	}

	user, err := identity.NewUser(in.TenantID, in.Username, in.Email, in.Password)
	if err != nil {
		return err
	}
	if err := user.SetRoles([]uuid.UUID{role.ID}); err != nil {
		return err
	}
	if err := b.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	b.logger.Info("Admin user created",
		zap.String("tenant_id", in.TenantID.String()),
		zap.String("username", user.Username))
	return nil
}
