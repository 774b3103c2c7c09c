package dto

import (
	"time"

	"github.com/auditflow/task-audit-api/internal/escalation"
	"github.com/auditflow/task-audit-api/internal/models"
)

// TaskDTO represents a task in API responses. Escalation is the effective
// state (explicit or inferred) at response time.
type TaskDTO struct {
	ID                uint64                       `json:"id"`
	Name              string                       `json:"name"`
	Description       string                       `json:"description"`
	Category          string                       `json:"category"`
	Priority          models.TaskPriority          `json:"priority"`
	Status            models.TaskStatus            `json:"status"`
	DueDate           *time.Time                   `json:"due_date"`
	Frequency         models.TaskFrequency         `json:"frequency"`
	IsRecurring       bool                         `json:"is_recurring"`
	Observation       models.ObservationStatus     `json:"observation_status"`
	AssignedToID      uint64                       `json:"assigned_to_id"`
	Checker1ID        uint64                       `json:"checker1_id"`
	Checker2ID        uint64                       `json:"checker2_id"`
	AssignedTo        *UserDTO                     `json:"assigned_to,omitempty"`
	Checker1          *UserDTO                     `json:"checker1,omitempty"`
	Checker2          *UserDTO                     `json:"checker2,omitempty"`
	Escalation        escalation.Escalation        `json:"escalation"`
	CurrentInstanceID *uint64                      `json:"current_instance_id"`
	NextInstanceDate  *time.Time                   `json:"next_instance_date"`
	Settings          *models.NotificationSettings `json:"notification_settings,omitempty"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
	SubmittedAt       *time.Time                   `json:"submitted_at"`
	CompletedAt       *time.Time                   `json:"completed_at"`
}

// ApprovalDTO represents an approval record in API responses
type ApprovalDTO struct {
	ID        uint64                  `json:"id"`
	UserID    uint64                  `json:"user_id"`
	UserRole  models.UserRole         `json:"user_role"`
	Decision  models.ApprovalDecision `json:"decision"`
	Comment   string                  `json:"comment,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	User      *UserDTO                `json:"user,omitempty"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	User      *UserDTO  `json:"user,omitempty"`
}

// AttachmentDTO represents attachment metadata in API responses
type AttachmentDTO struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskInstanceDTO represents one period of a task in API responses
type TaskInstanceDTO struct {
	ID                uint64            `json:"id"`
	BaseTaskID        uint64            `json:"base_task_id"`
	Status            models.TaskStatus `json:"status"`
	DueDate           time.Time         `json:"due_date"`
	AssignedToID      uint64            `json:"assigned_to_id"`
	Checker1ID        uint64            `json:"checker1_id"`
	Checker2ID        uint64            `json:"checker2_id"`
	InstanceReference string            `json:"instance_reference"`
	PeriodStart       time.Time         `json:"period_start"`
	PeriodEnd         time.Time         `json:"period_end"`
	SubmittedAt       *time.Time        `json:"submitted_at"`
	CompletedAt       *time.Time        `json:"completed_at"`
	Approvals         []ApprovalDTO     `json:"approvals,omitempty"`
	Comments          []CommentDTO      `json:"comments,omitempty"`
	Attachments       []AttachmentDTO   `json:"attachments,omitempty"`
}

// TaskListItemDTO represents a task in list responses (minimal data)
type TaskListItemDTO struct {
	ID          uint64                `json:"id"`
	Name        string                `json:"name"`
	Category    string                `json:"category"`
	Priority    models.TaskPriority   `json:"priority"`
	Status      models.TaskStatus     `json:"status"`
	DueDate     *time.Time            `json:"due_date"`
	IsRecurring bool                  `json:"is_recurring"`
	Escalation  escalation.Escalation `json:"escalation"`
	AssignedTo  *UserDTO              `json:"assigned_to,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO, deriving the effective
// escalation at now.
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:                task.ID,
		Name:              task.Name,
		Description:       task.Description,
		Category:          task.Category,
		Priority:          task.Priority,
		Status:            task.Status,
		DueDate:           task.DueDate,
		Frequency:         task.Frequency,
		IsRecurring:       task.IsRecurring,
		Observation:       task.Observation,
		AssignedToID:      task.AssignedToID,
		Checker1ID:        task.Checker1ID,
		Checker2ID:        task.Checker2ID,
		Escalation:        escalation.Evaluate(&task, now),
		CurrentInstanceID: task.CurrentInstanceID,
		NextInstanceDate:  task.NextInstanceDate,
		Settings:          task.NotificationSettings,
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
		SubmittedAt:       task.SubmittedAt,
		CompletedAt:       task.CompletedAt,
	}

	if task.AssignedTo.ID != 0 {
		u := ToUserDTO(task.AssignedTo)
		dto.AssignedTo = &u
	}
	if task.Checker1.ID != 0 {
		u := ToUserDTO(task.Checker1)
		dto.Checker1 = &u
	}
	if task.Checker2.ID != 0 {
		u := ToUserDTO(task.Checker2)
		dto.Checker2 = &u
	}

	return dto
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task, now time.Time) TaskListItemDTO {
	dto := TaskListItemDTO{
		ID:          task.ID,
		Name:        task.Name,
		Category:    task.Category,
		Priority:    task.Priority,
		Status:      task.Status,
		DueDate:     task.DueDate,
		IsRecurring: task.IsRecurring,
		Escalation:  escalation.Evaluate(&task, now),
		CreatedAt:   task.CreatedAt,
	}

	if task.AssignedTo.ID != 0 {
		u := ToUserDTO(task.AssignedTo)
		dto.AssignedTo = &u
	}

	return dto
}

// ToApprovalDTO converts an Approval model to ApprovalDTO
func ToApprovalDTO(approval models.Approval) ApprovalDTO {
	dto := ApprovalDTO{
		ID:        approval.ID,
		UserID:    approval.UserID,
		UserRole:  approval.UserRole,
		Decision:  approval.Decision,
		Comment:   approval.Comment,
		CreatedAt: approval.CreatedAt,
	}
	if approval.User.ID != 0 {
		u := ToUserDTO(approval.User)
		dto.User = &u
	}
	return dto
}

// ToTaskInstanceDTO converts a TaskInstance model to TaskInstanceDTO
func ToTaskInstanceDTO(instance models.TaskInstance) TaskInstanceDTO {
	dto := TaskInstanceDTO{
		ID:                instance.ID,
		BaseTaskID:        instance.BaseTaskID,
		Status:            instance.Status,
		DueDate:           instance.DueDate,
		AssignedToID:      instance.AssignedToID,
		Checker1ID:        instance.Checker1ID,
		Checker2ID:        instance.Checker2ID,
		InstanceReference: instance.InstanceReference,
		PeriodStart:       instance.PeriodStart,
		PeriodEnd:         instance.PeriodEnd,
		SubmittedAt:       instance.SubmittedAt,
		CompletedAt:       instance.CompletedAt,
	}

	for _, approval := range instance.Approvals {
		dto.Approvals = append(dto.Approvals, ToApprovalDTO(approval))
	}
	for _, comment := range instance.Comments {
		commentDTO := CommentDTO{
			ID:        comment.ID,
			UserID:    comment.UserID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
		}
		if comment.User.ID != 0 {
			u := ToUserDTO(comment.User)
			commentDTO.User = &u
		}
		dto.Comments = append(dto.Comments, commentDTO)
	}
	for _, attachment := range instance.Attachments {
		dto.Attachments = append(dto.Attachments, AttachmentDTO{
			ID:          attachment.ID,
			UserID:      attachment.UserID,
			FileName:    attachment.FileName,
			ContentType: attachment.ContentType,
			SizeBytes:   attachment.SizeBytes,
			StorageKey:  attachment.StorageKey,
			CreatedAt:   attachment.CreatedAt,
		})
	}

	return dto
}
