package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/auditflow/task-audit-api/internal/dto"
	apierrors "github.com/auditflow/task-audit-api/internal/errors"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/auditflow/task-audit-api/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler coordinates admin-side user management handlers.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns all users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch users")
		return
	}

	dtos := make([]dto.UserDTO, len(users))
	for i, user := range users {
		dtos[i] = dto.ToUserDTO(user)
	}

	c.JSON(http.StatusOK, gin.H{"users": dtos})
}

// CreateUser creates a user with a temporary credential, returned exactly
// once in the response.
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Username    string            `json:"username" binding:"required,min=3,max=50"`
		DisplayName string            `json:"display_name" binding:"required"`
		Email       string            `json:"email" binding:"required,email"`
		Role        models.UserRole   `json:"role" binding:"required"`
		ExtraRoles  []models.UserRole `json:"extra_roles"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, tempPassword, err := h.userService.CreateUser(services.CreateUserInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        req.Role,
		ExtraRoles:  req.ExtraRoles,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":          dto.ToUserDTO(*user),
		"temp_password": tempPassword,
	})
}

// UpdateUser applies an admin update to a user.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	type UpdateUserRequest struct {
		DisplayName *string           `json:"display_name"`
		Email       *string           `json:"email"`
		Role        *models.UserRole  `json:"role"`
		ExtraRoles  []models.UserRole `json:"extra_roles"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateUser(userID, services.UpdateUserInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        req.Role,
		ExtraRoles:  req.ExtraRoles,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes a user by explicit admin action.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.userService.DeleteUser(userID); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
