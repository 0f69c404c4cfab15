package transport

import (
	"time"

	"aduanas_portal_backend/internal/auth/repository"

	"github.com/google/uuid"
)

// SignInRequest carries sign-in credentials.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RefreshRequest carries a refresh token for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SignOutRequest revokes a refresh token.
type SignOutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPairResponse carries a freshly issued token pair.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CreateUserRequest registers a new portal user (admin only).
type CreateUserRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	DisplayName string   `json:"displayName" validate:"required,min=1,max=200"`
	Password    string   `json:"password" validate:"required,min=8,max=128"`
	Roles       []string `json:"roles" validate:"required,min=1,dive,oneof=admin supervisor aforador revisor ejecutivo digitador facturador"`
}

// SetRolesRequest replaces a user's roles (admin only).
type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=admin supervisor aforador revisor ejecutivo digitador facturador"`
}

// SetActiveRequest enables or disables a user (admin only).
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// UserResponse represents a portal user in API responses.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Roles       []string  `json:"roles"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FromUser maps a user to its response shape.
func FromUser(u repository.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}
