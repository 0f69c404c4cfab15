package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a portal user. DisplayName is the trusted identity recorded on
// every status update and log entry.
type User struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	Roles        []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository is the auth persistence contract.
type Repository interface {
	CreateUser(ctx context.Context, email, displayName, passwordHash string, roles []string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error
}
