package auth

import (
	"errors"
	"time"

	"github.com/carehours/backend/internal/domain/identity"
	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims carried by every CareHours token
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string    `json:"tid"`
	UserID      string    `json:"uid"`
	Username    string    `json:"usr,omitempty"`
	ProviderID  string    `json:"pid,omitempty"`
	RoleIDs     []string  `json:"roles,omitempty"`
	Permissions []string  `json:"perms,omitempty"`
	TokenType   TokenType `json:"typ"`
}

// TokenPair is returned on login and refresh
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// Subject describes whom a token pair is issued to
type Subject struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Username    string
	ProviderID  *uuid.UUID
	RoleIDs     []uuid.UUID
	Permissions []string
}

// JWTService signs and validates HS256 tokens
type JWTService struct {
	accessSecret      []byte
	refreshSecret     []byte
	accessExpiration  time.Duration
	refreshExpiration time.Duration
	issuer            string
	now               func() time.Time
}

// NewJWTService creates a JWT service. The refresh secret falls back to the access secret.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		accessSecret:      []byte(cfg.Secret),
		refreshSecret:     []byte(refreshSecret),
		accessExpiration:  cfg.AccessTokenExpiration,
		refreshExpiration: cfg.RefreshTokenExpiration,
		issuer:            cfg.Issuer,
		now:               time.Now,
	}
}

// IssueTokenPair signs a fresh access and refresh token for the subject
func (s *JWTService) IssueTokenPair(sub Subject) (*TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.accessExpiration)
	refreshExp := now.Add(s.refreshExpiration)

	roleIDs := make([]string, len(sub.RoleIDs))
	for i, id := range sub.RoleIDs {
		roleIDs[i] = id.String()
	}
	providerID := ""
	if sub.ProviderID != nil {
		providerID = sub.ProviderID.String()
	}

	access := &Claims{
		RegisteredClaims: s.registered(sub.UserID, now, accessExp),
		TenantID:         sub.TenantID.String(),
		UserID:           sub.UserID.String(),
		Username:         sub.Username,
		ProviderID:       providerID,
		RoleIDs:          roleIDs,
		Permissions:      sub.Permissions,
		TokenType:        TokenTypeAccess,
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(s.accessSecret)
	if err != nil {
		return nil, err
	}

	// Refresh tokens carry identity only; permissions are re-resolved on refresh.
	refresh := &Claims{
		RegisteredClaims: s.registered(sub.UserID, now, refreshExp),
		TenantID:         sub.TenantID.String(),
		UserID:           sub.UserID.String(),
		TokenType:        TokenTypeRefresh,
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

func (s *JWTService) registered(userID uuid.UUID, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(exp),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

// ValidateAccessToken parses an access token
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.parse(token, s.accessSecret, TokenTypeAccess)
}

// ValidateRefreshToken parses a refresh token
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.parse(token, s.refreshSecret, TokenTypeRefresh)
}

func (s *JWTService) parse(raw string, secret []byte, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != want {
		return nil, ErrInvalidTokenType
	}
	if _, err := uuid.Parse(claims.TenantID); err != nil {
		return nil, ErrInvalidClaims
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// AccessTokenTTL returns the configured access token lifetime
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessExpiration
}

// RefreshTokenTTL returns the configured refresh token lifetime
func (s *JWTService) RefreshTokenTTL() time.Duration {
	return s.refreshExpiration
}

// TenantUUID returns the parsed tenant ID
func (c *Claims) TenantUUID() uuid.UUID {
	id, _ := uuid.Parse(c.TenantID)
	return id
}

// UserUUID returns the parsed user ID
func (c *Claims) UserUUID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}

// ProviderUUID returns the linked provider, if any
func (c *Claims) ProviderUUID() *uuid.UUID {
	if c.ProviderID == "" {
		return nil
	}
	id, err := uuid.Parse(c.ProviderID)
	if err != nil {
		return nil
	}
	return &id
}

// HasPermission honours exact codes as well as resource and global wildcards
func (c *Claims) HasPermission(code string) bool {
	return identity.HasPermission(c.Permissions, code)
}

// HasAnyPermission reports whether at least one code is granted
func (c *Claims) HasAnyPermission(codes ...string) bool {
	for _, code := range codes {
		if c.HasPermission(code) {
			return true
		}
	}
	return false
}

// RemainingTTL is the time left until expiry, never negative
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := time.Until(c.ExpiresAt.Time); d > 0 {
		return d
	}
	return 0
}

// IssuedAtTime returns the iat claim
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}
