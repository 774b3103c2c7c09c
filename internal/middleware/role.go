package middleware

import (
	"github.com/auditflow/task-audit-api/internal/database"
	apierrors "github.com/auditflow/task-audit-api/internal/errors"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireRole checks that the authenticated user's role set contains the
// given role. Admin passes every role gate.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var user models.User
		if err := database.GetDB().First(&user, userID).Error; err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if user.Role != models.RoleAdmin && !user.HasRole(role) {
			apierrors.Forbidden(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin restricts a route to admins.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
