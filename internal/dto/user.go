package dto

import (
	"time"

	"github.com/auditflow/task-audit-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID                uint64            `json:"id"`
	Username          string            `json:"username"`
	DisplayName       string            `json:"display_name"`
	Email             string            `json:"email"`
	Role              models.UserRole   `json:"role"`
	Roles             []models.UserRole `json:"roles"`
	FirstLogin        bool              `json:"first_login"`
	PasswordExpiresAt time.Time         `json:"password_expires_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:                user.ID,
		Username:          user.Username,
		DisplayName:       user.DisplayName,
		Email:             user.Email,
		Role:              user.Role,
		Roles:             user.Roles(),
		FirstLogin:        user.FirstLogin,
		PasswordExpiresAt: user.PasswordExpiresAt,
	}
}
