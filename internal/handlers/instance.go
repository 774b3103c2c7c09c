package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/auditflow/task-audit-api/internal/dto"
	apierrors "github.com/auditflow/task-audit-api/internal/errors"
	"github.com/auditflow/task-audit-api/internal/middleware"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/auditflow/task-audit-api/internal/services"
	"github.com/auditflow/task-audit-api/internal/workflow"
	"github.com/gin-gonic/gin"
)

// InstanceHandler serves task instances and their approval workflow.
type InstanceHandler struct {
	instanceService *services.InstanceService
}

// NewInstanceHandler creates a new InstanceHandler.
func NewInstanceHandler(instanceService *services.InstanceService) *InstanceHandler {
	return &InstanceHandler{
		instanceService: instanceService,
	}
}

// ListInstances returns all instances of a task, newest first.
func (h *InstanceHandler) ListInstances(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	instances, err := h.instanceService.ListInstances(task.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch instances")
		return
	}

	items := make([]dto.TaskInstanceDTO, len(instances))
	for i, instance := range instances {
		items[i] = dto.ToTaskInstanceDTO(instance)
	}

	c.JSON(http.StatusOK, gin.H{"instances": items})
}

// GetInstance returns a single instance with its approval trail.
func (h *InstanceHandler) GetInstance(c *gin.Context) {
	instanceID, ok := parseInstanceID(c)
	if !ok {
		return
	}

	instance, err := h.instanceService.GetInstance(instanceID)
	if err != nil {
		respondInstanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskInstanceDTO(*instance))
}

// Submit marks the instance submitted for review by its maker.
func (h *InstanceHandler) Submit(c *gin.Context) {
	h.act(c, func(instanceID, actorID uint64) (*models.TaskInstance, error) {
		return h.instanceService.Submit(instanceID, actorID)
	})
}

// Checker1Decide records the first-level review decision.
func (h *InstanceHandler) Checker1Decide(c *gin.Context) {
	decision, comment, ok := bindDecision(c)
	if !ok {
		return
	}
	h.act(c, func(instanceID, actorID uint64) (*models.TaskInstance, error) {
		return h.instanceService.Checker1Decide(instanceID, actorID, decision, comment)
	})
}

// Checker2Decide records the final review decision.
func (h *InstanceHandler) Checker2Decide(c *gin.Context) {
	decision, comment, ok := bindDecision(c)
	if !ok {
		return
	}
	h.act(c, func(instanceID, actorID uint64) (*models.TaskInstance, error) {
		return h.instanceService.Checker2Decide(instanceID, actorID, decision, comment)
	})
}

// Rework moves a rejected instance back to in-progress for the maker.
func (h *InstanceHandler) Rework(c *gin.Context) {
	h.act(c, func(instanceID, actorID uint64) (*models.TaskInstance, error) {
		return h.instanceService.Rework(instanceID, actorID)
	})
}

// AddComment appends a comment to the instance.
func (h *InstanceHandler) AddComment(c *gin.Context) {
	instanceID, ok := parseInstanceID(c)
	if !ok {
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CommentRequest struct {
		Body string `json:"body" binding:"required"`
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.instanceService.AddComment(instanceID, userID, req.Body)
	if err != nil {
		respondInstanceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// AddAttachment records attachment metadata against the instance.
// The binary itself lives in external storage under StorageKey.
func (h *InstanceHandler) AddAttachment(c *gin.Context) {
	instanceID, ok := parseInstanceID(c)
	if !ok {
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type AttachmentRequest struct {
		FileName    string `json:"file_name" binding:"required"`
		ContentType string `json:"content_type"`
		SizeBytes   int64  `json:"size_bytes"`
		StorageKey  string `json:"storage_key" binding:"required"`
	}

	var req AttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	attachment, err := h.instanceService.AddAttachment(instanceID, userID, &models.Attachment{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		StorageKey:  req.StorageKey,
	})
	if err != nil {
		respondInstanceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

// act runs a workflow action for the authenticated user and responds
// with the updated instance.
func (h *InstanceHandler) act(c *gin.Context, fn func(instanceID, actorID uint64) (*models.TaskInstance, error)) {
	instanceID, ok := parseInstanceID(c)
	if !ok {
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	instance, err := fn(instanceID, userID)
	if err != nil {
		respondInstanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskInstanceDTO(*instance))
}

func parseInstanceID(c *gin.Context) (uint64, bool) {
	instanceID, err := strconv.ParseUint(c.Param("instanceId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid instance ID")
		return 0, false
	}
	return instanceID, true
}

func bindDecision(c *gin.Context) (models.ApprovalDecision, string, bool) {
	type DecisionRequest struct {
		Decision models.ApprovalDecision `json:"decision" binding:"required"`
		Comment  string                  `json:"comment"`
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return "", "", false
	}
	if req.Decision != models.DecisionApproved && req.Decision != models.DecisionRejected {
		apierrors.ValidationFailed(c, "decision", "decision must be approved or rejected")
		return "", "", false
	}
	return req.Decision, req.Comment, true
}

func respondInstanceError(c *gin.Context, err error) {
	var transitionErr *workflow.IllegalTransitionError
	switch {
	case errors.As(err, &transitionErr):
		apierrors.IllegalTransition(c, transitionErr.Error())
	case errors.Is(err, services.ErrNotAssignedMaker),
		errors.Is(err, services.ErrNotChecker1),
		errors.Is(err, services.ErrNotChecker2):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrCommentRequired):
		apierrors.ValidationFailed(c, "body", err.Error())
	case errors.Is(err, services.ErrConcurrentUpdate):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInstanceNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
