package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/auditflow/task-audit-api/internal/constants"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/auditflow/task-audit-api/internal/repository"
	"github.com/auditflow/task-audit-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUsernameRequired   = errors.New("username is required")
	ErrInvalidRole        = errors.New("invalid role")
	ErrFailedToCreateUser = errors.New("failed to create user")
)

// UserService handles admin-side user management.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// CreateUserInput represents an admin creating a user.
type CreateUserInput struct {
	Username    string
	DisplayName string
	Email       string
	Role        models.UserRole
	ExtraRoles  []models.UserRole
}

// CreateUser creates a user with an admin-issued temporary credential.
// The credential is returned exactly once; the user logs in with it,
// flagged first-login, and must change it.
func (s *UserService) CreateUser(input CreateUserInput) (*models.User, string, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, "", ErrUsernameRequired
	}
	if !validRole(input.Role) {
		return nil, "", ErrInvalidRole
	}
	for _, r := range input.ExtraRoles {
		if !validRole(r) {
			return nil, "", ErrInvalidRole
		}
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}

	tempPassword, err := utils.GenerateTempPassword()
	if err != nil {
		return nil, "", ErrFailedToCreateUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", ErrFailedToHashPassword
	}

	user := &models.User{
		Username:          username,
		DisplayName:       input.DisplayName,
		Email:             input.Email,
		PasswordHash:      string(hashed),
		Role:              input.Role,
		FirstLogin:        true,
		PasswordExpiresAt: time.Now().AddDate(0, 0, constants.TempPasswordExpiryDays),
	}
	user.SetRoles(input.ExtraRoles)

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return user, tempPassword, nil
}

// UpdateUserInput represents an admin updating a user.
type UpdateUserInput struct {
	DisplayName *string
	Email       *string
	Role        *models.UserRole
	ExtraRoles  []models.UserRole
}

// UpdateUser applies an admin update to a user.
func (s *UserService) UpdateUser(id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		if !validRole(*input.Role) {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.ExtraRoles != nil {
		for _, r := range input.ExtraRoles {
			if !validRole(r) {
				return nil, ErrInvalidRole
			}
		}
		user.SetRoles(input.ExtraRoles)
	} else if input.Role != nil {
		// Keep the roles-contains-primary invariant after a role change.
		user.SetRoles(user.Roles())
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser removes a user by explicit admin action.
func (s *UserService) DeleteUser(id uint64) error {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// ListUsers returns all users.
func (s *UserService) ListUsers() ([]models.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func validRole(r models.UserRole) bool {
	switch r {
	case models.RoleAdmin, models.RoleMaker, models.RoleChecker1, models.RoleChecker2:
		return true
	default:
		return false
	}
}
