// Package service implements sign-in, token refresh and user administration.
// There is no public sign-up: users are seeded by migration or created by an
// admin.
package service

import (
	"context"
	"strings"
	"time"

	"aduanas_portal_backend/internal/auth/password"
	"aduanas_portal_backend/internal/auth/repository"
	"aduanas_portal_backend/internal/auth/token"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/config"
	"aduanas_portal_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

// TokenPair carries a freshly issued access + refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service implements authentication operations.
type Service struct {
	repo repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
}

// New creates the auth service.
func New(repo repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// SignIn verifies credentials and issues a token pair.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.AuthEvent("sign_in", email, false, "unknown user")
		return TokenPair{}, apperr.Unauthorized("invalid credentials")
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("sign_in", email, false, "bad password")
		return TokenPair{}, apperr.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		s.log.AuthEvent("sign_in", email, false, "inactive user")
		return TokenPair{}, apperr.Forbidden("user is disabled")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}
	s.log.AuthEvent("sign_in", email, true, "")
	return pair, nil
}

// Refresh rotates a refresh token into a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	if time.Now().After(expiresAt) {
		_ = s.repo.RevokeRefreshToken(ctx, hash)
		return TokenPair{}, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	if !user.IsActive {
		_ = s.repo.RevokeAllRefreshTokens(ctx, userID)
		return TokenPair{}, apperr.Forbidden("user is disabled")
	}

	// Single-use refresh tokens: the old one dies with the rotation.
	_ = s.repo.RevokeRefreshToken(ctx, hash)
	return s.issueTokens(ctx, user)
}

// SignOut revokes the presented refresh token.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	hash := token.HashSHA256(refreshToken)
	return s.repo.RevokeRefreshToken(ctx, hash)
}

// CreateUserParams carries an admin user-creation request.
type CreateUserParams struct {
	Email       string
	DisplayName string
	Password    string
	Roles       []string
}

// CreateUser registers a new portal user (admin operation).
func (s *Service) CreateUser(ctx context.Context, p CreateUserParams) (repository.User, error) {
	if strings.TrimSpace(p.DisplayName) == "" {
		return repository.User{}, apperr.Validation("a display name is required")
	}
	if len(p.Roles) == 0 {
		return repository.User{}, apperr.Validation("at least one role is required")
	}

	hash, err := password.Hash(p.Password)
	if err != nil {
		return repository.User{}, err
	}
	return s.repo.CreateUser(ctx, p.Email, strings.TrimSpace(p.DisplayName), hash, p.Roles)
}

// ListUsers returns every portal user (admin operation).
func (s *Service) ListUsers(ctx context.Context) ([]repository.User, error) {
	return s.repo.ListUsers(ctx)
}

// SetUserRoles replaces a user's roles (admin operation).
func (s *Service) SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	if len(roles) == 0 {
		return apperr.Validation("at least one role is required")
	}
	return s.repo.SetUserRoles(ctx, userID, roles)
}

// SetUserActive enables or disables a user; disabling revokes all refresh
// tokens (admin operation).
func (s *Service) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if err := s.repo.SetUserActive(ctx, userID, active); err != nil {
		return err
	}
	if !active {
		return s.repo.RevokeAllRefreshTokens(ctx, userID)
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user repository.User) (TokenPair, error) {
	accessToken, err := s.signJWT(user, s.cfg.GetAccessTokenTTL())
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := token.GenerateRandomToken(48)
	if err != nil {
		return TokenPair{}, err
	}
	hash := token.HashSHA256(refreshToken)
	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, user.ID, hash, expiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// signJWT embeds the display name and email so downstream writes can stamp
// updated_by without a user lookup.
func (s *Service) signJWT(user repository.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"name":  user.DisplayName,
		"email": user.Email,
		"roles": user.Roles,
		"type":  accessTokenType,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}
	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
