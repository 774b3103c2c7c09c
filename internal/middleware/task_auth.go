package middleware

import (
	"strconv"

	"github.com/auditflow/task-audit-api/internal/database"
	apierrors "github.com/auditflow/task-audit-api/internal/errors"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireTaskAccess checks if the user may see a task: they must be the
// maker, one of the checkers, or an admin.
func RequireTaskAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskIDStr := c.Param("id")
		taskID, err := strconv.ParseUint(taskIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var task models.Task
		if err := database.GetDB().
			Preload("AssignedTo").
			Preload("Checker1").
			Preload("Checker2").
			Preload("NotificationSettings").
			First(&task, taskID).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		if !taskParticipant(&task, userID) && !isAdmin(userID) {
			// Return 404 instead of 403 to avoid leaking task existence
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set("task", task)
		c.Next()
	}
}

func taskParticipant(task *models.Task, userID uint64) bool {
	return task.AssignedToID == userID ||
		task.Checker1ID == userID ||
		task.Checker2ID == userID
}

func isAdmin(userID uint64) bool {
	var user models.User
	if err := database.GetDB().First(&user, userID).Error; err != nil {
		return false
	}
	return user.Role == models.RoleAdmin
}

// GetTask retrieves the task loaded by RequireTaskAccess.
func GetTask(c *gin.Context) (models.Task, bool) {
	taskInterface, exists := c.Get("task")
	if !exists {
		return models.Task{}, false
	}
	task, ok := taskInterface.(models.Task)
	return task, ok
}
