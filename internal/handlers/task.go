package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/auditflow/task-audit-api/internal/dto"
	apierrors "github.com/auditflow/task-audit-api/internal/errors"
	"github.com/auditflow/task-audit-api/internal/middleware"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/auditflow/task-audit-api/internal/recurrence"
	"github.com/auditflow/task-audit-api/internal/services"
	"github.com/auditflow/task-audit-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// TaskHandler coordinates task-level HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns tasks matching the query filters.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		Page:          params.Page,
		PageSize:      params.Limit,
		SortByDueDate: c.Query("sort") == "due_date",
	}

	if raw := c.Query("status"); raw != "" {
		status := models.NormalizeStatus(raw)
		input.Status = &status
	}
	if raw := c.Query("assigned_to"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assigned_to")
			return
		}
		input.AssignedToID = &id
	}
	if raw := c.Query("checker"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid checker")
			return
		}
		input.CheckerID = &id
	}
	if raw := c.Query("category"); raw != "" {
		input.Category = &raw
	}
	if raw := c.Query("recurring"); raw != "" {
		recurring := raw == "true"
		input.IsRecurring = &recurring
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	now := timeNow()
	items := make([]dto.TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = dto.ToTaskListItemDTO(task, now)
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": items,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetTask returns a specific task by ID.
// Task is already loaded by the RequireTaskAccess middleware.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task, timeNow()))
}

// CreateTask creates a new task after maker-checker validation.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Name         string                       `json:"name" binding:"required"`
		Description  string                       `json:"description"`
		Category     string                       `json:"category"`
		Priority     models.TaskPriority          `json:"priority"`
		DueDate      *time.Time                   `json:"due_date"`
		Frequency    models.TaskFrequency         `json:"frequency"`
		IsRecurring  bool                         `json:"is_recurring"`
		AssignedToID uint64                       `json:"assigned_to_id" binding:"required"`
		Checker1ID   uint64                       `json:"checker1_id" binding:"required"`
		Checker2ID   uint64                       `json:"checker2_id" binding:"required"`
		Settings     *NotificationSettingsRequest `json:"notification_settings"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var settings *models.NotificationSettings
	if req.Settings != nil {
		settings = req.Settings.toModel()
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		Frequency:    req.Frequency,
		IsRecurring:  req.IsRecurring,
		AssignedToID: req.AssignedToID,
		Checker1ID:   req.Checker1ID,
		Checker2ID:   req.Checker2ID,
		Settings:     settings,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task, timeNow()))
}

// UpdateTask applies a partial update with optimistic-concurrency control:
// the client echoes the updated_at it last read.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type UpdateTaskRequest struct {
		Name         *string                   `json:"name"`
		Description  *string                   `json:"description"`
		Category     *string                   `json:"category"`
		Priority     *models.TaskPriority      `json:"priority"`
		DueDate      *time.Time                `json:"due_date"`
		ClearDueDate bool                      `json:"clear_due_date"`
		AssignedToID *uint64                   `json:"assigned_to_id"`
		Checker1ID   *uint64                   `json:"checker1_id"`
		Checker2ID   *uint64                   `json:"checker2_id"`
		Observation  *models.ObservationStatus `json:"observation_status"`
		UpdatedAt    time.Time                 `json:"updated_at"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UpdateTask(task.ID, services.UpdateTaskInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
		AssignedToID: req.AssignedToID,
		Checker1ID:   req.Checker1ID,
		Checker2ID:   req.Checker2ID,
		Observation:  req.Observation,
		UpdatedAt:    req.UpdatedAt,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated, timeNow()))
}

// DeleteTask deletes a task and its instances.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// GenerateNextInstance rolls a recurring task over to its next period.
func (h *TaskHandler) GenerateNextInstance(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	instance, err := h.taskService.GenerateNextInstance(task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskInstanceDTO(*instance))
}

// EscalateTask sets the explicit escalation block.
func (h *TaskHandler) EscalateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type EscalateRequest struct {
		Priority models.TaskPriority `json:"priority" binding:"required"`
		Reason   string              `json:"reason" binding:"required"`
	}

	var req EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.EscalateTask(services.EscalateTaskInput{
		TaskID:   task.ID,
		ActorID:  userID,
		Priority: req.Priority,
		Reason:   req.Reason,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated, timeNow()))
}

// DeescalateTask clears the explicit escalation block.
func (h *TaskHandler) DeescalateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	updated, err := h.taskService.DeescalateTask(task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated, timeNow()))
}

// ListEscalatedTasks returns tasks whose effective escalation is set.
func (h *TaskHandler) ListEscalatedTasks(c *gin.Context) {
	escalated, err := h.taskService.ListEscalatedTasks(timeNow())
	if err != nil {
		apierrors.InternalError(c, "Failed to classify tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": escalated})
}

// PreviewNotifications returns the computed reminder timeline for a task.
// Delivery is owned by an external dispatcher.
func (h *TaskHandler) PreviewNotifications(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	preview, err := h.taskService.PreviewNotifications(task.ID, timeNow())
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// NotificationSettingsRequest carries the client-editable settings fields.
// Row and task identifiers are owned by the server and never bound.
type NotificationSettingsRequest struct {
	EnablePreNotifications    bool                             `json:"enable_pre_notifications"`
	CustomPreDays             string                           `json:"custom_pre_days"`
	EnablePostNotifications   bool                             `json:"enable_post_notifications"`
	PostNotificationFrequency models.PostNotificationFrequency `json:"post_notification_frequency" binding:"omitempty,oneof=daily weekly"`
	SendEmails                bool                             `json:"send_emails"`
	NotifyMaker               bool                             `json:"notify_maker"`
	NotifyChecker1            bool                             `json:"notify_checker1"`
	NotifyChecker2            bool                             `json:"notify_checker2"`
}

func (r NotificationSettingsRequest) toModel() *models.NotificationSettings {
	frequency := r.PostNotificationFrequency
	if frequency == "" {
		frequency = models.PostNotifyDaily
	}

	return &models.NotificationSettings{
		EnablePreNotifications:    r.EnablePreNotifications,
		CustomPreDaysCSV:          r.CustomPreDays,
		EnablePostNotifications:   r.EnablePostNotifications,
		PostNotificationFrequency: frequency,
		SendEmails:                r.SendEmails,
		NotifyMaker:               r.NotifyMaker,
		NotifyChecker1:            r.NotifyChecker1,
		NotifyChecker2:            r.NotifyChecker2,
	}
}

// UpdateNotificationSettings replaces a task's notification settings.
func (h *TaskHandler) UpdateNotificationSettings(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req NotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UpdateNotificationSettings(task.ID, req.toModel())
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func respondTaskError(c *gin.Context, err error) {
	var assignmentErr *services.AssignmentError
	switch {
	case errors.As(err, &assignmentErr):
		apierrors.ValidationFailed(c, assignmentErr.Field(), assignmentErr.Error())
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrAssigneeMissing),
		errors.Is(err, services.ErrDueDateRequired),
		errors.Is(err, services.ErrNotEscalated):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, recurrence.ErrNotRecurring):
		apierrors.NotRecurring(c, err.Error())
	case errors.Is(err, services.ErrConcurrentUpdate):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrSettingsNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
