package identity

import (
	"context"
	"errors"
	"time"

	"github.com/carehours/backend/internal/domain/audit"
	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuditRecorder writes audit entries without failing the caller
type AuditRecorder interface {
	RecordQuietly(ctx context.Context, entry audit.Entry)
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	roleRepo   identity.RoleRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	audit      AuditRecorder
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	recorder AuditRecorder,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		audit:      recorder,
		config:     config,
		logger:     logger,
	}
}

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	log := s.logger.With(zap.String("username", input.Username))

	user, err := s.findForLogin(ctx, input)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			log.Warn("User not found during login")
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := user.CanLogin(); err != nil {
		log.Warn("Login refused", zap.Error(err))
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			log.Error("Failed to update user after login failure", zap.Error(err))
		}
		s.record(ctx, user, audit.ActionLoginFailed, input, map[string]any{
			"failed_attempts": user.FailedAttempts,
			"locked":          locked,
		})

		if locked {
			log.Warn("Account locked after too many failed attempts", zap.Int("attempts", user.FailedAttempts))
			return nil, shared.NewDomainError("USER_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		log.Warn("Invalid password attempt", zap.Int("failed_attempts", user.FailedAttempts))
		return nil, errInvalidCredentials
	}

	permissions, err := s.resolvePermissions(ctx, user)
	if err != nil {
		return nil, err
	}

	pair, err := s.jwtService.IssueTokenPair(subjectFor(user, permissions))
	if err != nil {
		log.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the tokens are already valid, a stale last-login is acceptable
		log.Error("Failed to update user after successful login", zap.Error(err))
	}
	s.record(ctx, user, audit.ActionLogin, input, nil)

	log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &LoginResult{Tokens: *pair, User: toUserInfo(user, permissions)}, nil
}

func (s *AuthService) findForLogin(ctx context.Context, input LoginInput) (*identity.User, error) {
	if input.TenantID != nil {
		return s.userRepo.FindByUsername(ctx, *input.TenantID, input.Username)
	}
	return s.userRepo.FindByUsernameAnyTenant(ctx, input.Username)
}

// Refresh rotates a token pair. The presented refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, input RefreshTokenInput) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.TenantUUID(), claims.UserUUID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
		}
		return nil, err
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	permissions, err := s.resolvePermissions(ctx, user)
	if err != nil {
		return nil, err
	}
	pair, err := s.jwtService.IssueTokenPair(subjectFor(user, permissions))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err))
	}
	s.audit.RecordQuietly(ctx, audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    &user.ID,
		Action:     audit.ActionTokenRefresh,
		EntityType: audit.EntityTypeSession,
		EntityID:   &user.ID,
	})
	return pair, nil
}

// Logout revokes the presented tokens until they expire. Tokens that no
// longer validate are skipped.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	var subject *auth.Claims
	if input.AccessToken != "" {
		if claims, err := s.jwtService.ValidateAccessToken(input.AccessToken); err == nil {
			subject = claims
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
				return err
			}
		}
	}
	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil {
			if subject == nil {
				subject = claims
			}
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
				return err
			}
		}
	}
	if subject == nil {
		return nil
	}

	userID := subject.UserUUID()
	s.audit.RecordQuietly(ctx, audit.Entry{
		TenantID:   subject.TenantUUID(),
		ActorID:    &userID,
		Action:     audit.ActionLogout,
		EntityType: audit.EntityTypeSession,
		EntityID:   &userID,
	})
	s.logger.Info("User logged out", zap.String("user_id", subject.UserID))
	return nil
}

// IsTokenRevoked is used by the JWT middleware on every request
func (s *AuthService) IsTokenRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if revoked, err := s.blacklist.IsRevoked(ctx, claims.ID); err != nil || revoked {
		return revoked, err
	}
	return s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.IsTokenRevoked(ctx, claims)
	if err != nil {
		return err
	}
	if revoked {
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	}
	return nil
}

// GetCurrentUser retrieves the current user's information
func (s *AuthService) GetCurrentUser(ctx context.Context, tenantID, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.resolvePermissions(ctx, user)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user, permissions)
	return &info, nil
}

// ChangePassword changes a user's password and revokes the tokens issued before
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.TenantID, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	if err := s.blacklist.RevokeUser(ctx, user.ID.String(), s.jwtService.RefreshTokenTTL()); err != nil {
		s.logger.Error("Failed to revoke tokens after password change", zap.Error(err))
	}

	s.logger.Info("User password changed", zap.String("user_id", input.UserID.String()))
	return nil
}

// resolvePermissions loads the user's roles and unions their permissions
func (s *AuthService) resolvePermissions(ctx context.Context, user *identity.User) ([]string, error) {
	if len(user.RoleIDs) == 0 {
		return []string{}, nil
	}
	roles, err := s.roleRepo.FindByIDs(ctx, user.TenantID, user.RoleIDs)
	if err != nil {
		s.logger.Error("Failed to load user roles", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, err
	}
	return identity.ResolvePermissions(roles), nil
}

func (s *AuthService) record(ctx context.Context, user *identity.User, action string, input LoginInput, details map[string]any) {
	s.audit.RecordQuietly(ctx, audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    &user.ID,
		Action:     action,
		EntityType: audit.EntityTypeSession,
		EntityID:   &user.ID,
		Details:    details,
		IPAddress:  input.IP,
		UserAgent:  input.UserAgent,
	})
}

func subjectFor(user *identity.User, permissions []string) auth.Subject {
	return auth.Subject{
		TenantID:    user.TenantID,
		UserID:      user.ID,
		Username:    user.Username,
		ProviderID:  user.ProviderID,
		RoleIDs:     user.RoleIDs,
		Permissions: permissions,
	}
}

// tokenError maps JWT validation errors to domain errors
func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrInvalidTokenType):
		return shared.NewDomainError("TOKEN_INVALID", "Wrong token type")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
