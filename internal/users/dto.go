package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/niyastp88/zayancart/pkg/db/models"
	"github.com/niyastp88/zayancart/pkg/enums"
)

// RegisterInput carries the signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput carries the credentials payload.
type LoginInput struct {
	Email    string
	Password string
}

// DTO is a user account in API shape.
type DTO struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuthResult bundles the account with a freshly minted access token.
type AuthResult struct {
	User  DTO    `json:"user"`
	Token string `json:"token"`
}

func toDTO(user *models.User) DTO {
	return DTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
