package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending          TaskStatus = "pending"
	TaskStatusInProgress       TaskStatus = "in-progress"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusChecker1Approved TaskStatus = "checker1-approved"
	TaskStatusApproved         TaskStatus = "approved"
	TaskStatusRejected         TaskStatus = "rejected"
)

// NormalizeStatus maps externally stored underscore-cased status variants
// onto the canonical enumeration. Unknown values pass through unchanged.
func NormalizeStatus(raw string) TaskStatus {
	switch raw {
	case "in_progress":
		return TaskStatusInProgress
	case "checker1_approved":
		return TaskStatusChecker1Approved
	default:
		return TaskStatus(raw)
	}
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

type TaskFrequency string

const (
	FrequencyOneTime     TaskFrequency = "one-time"
	FrequencyDaily       TaskFrequency = "daily"
	FrequencyWeekly      TaskFrequency = "weekly"
	FrequencyFortnightly TaskFrequency = "fortnightly"
	FrequencyMonthly     TaskFrequency = "monthly"
	FrequencyQuarterly   TaskFrequency = "quarterly"
	FrequencyAnnually    TaskFrequency = "annually"
)

type ObservationStatus string

const (
	ObservationYes   ObservationStatus = "yes"
	ObservationNo    ObservationStatus = "no"
	ObservationMixed ObservationStatus = "mixed"
)

type Task struct {
	ID          uint64            `gorm:"primarykey" json:"id"`
	Name        string            `gorm:"type:varchar(255);not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Category    string            `gorm:"type:varchar(100)" json:"category"`
	Priority    TaskPriority      `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Status      TaskStatus        `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	DueDate     *time.Time        `json:"due_date"`
	Frequency   TaskFrequency     `gorm:"type:varchar(20);not null;default:'one-time'" json:"frequency"`
	IsRecurring bool              `gorm:"not null;default:false" json:"is_recurring"`
	Observation ObservationStatus `gorm:"type:varchar(10);default:'no'" json:"observation_status"`

	// Assignment triple: pairwise distinct, enforced by the workflow
	// validator before every create and update.
	AssignedToID uint64 `gorm:"not null" json:"assigned_to_id"`
	Checker1ID   uint64 `gorm:"not null" json:"checker1_id"`
	Checker2ID   uint64 `gorm:"not null" json:"checker2_id"`

	// Explicit escalation block. When IsEscalated is false the effective
	// escalation is inferred on demand from status and due date.
	IsEscalated        bool         `gorm:"not null;default:false" json:"is_escalated"`
	EscalationPriority TaskPriority `gorm:"type:varchar(20)" json:"escalation_priority,omitempty"`
	EscalationReason   string       `gorm:"type:text" json:"escalation_reason,omitempty"`
	EscalatedAt        *time.Time   `json:"escalated_at,omitempty"`
	EscalatedByID      *uint64      `json:"escalated_by_id,omitempty"`

	// Recurrence bookkeeping
	CurrentInstanceID *uint64    `json:"current_instance_id"`
	NextInstanceDate  *time.Time `json:"next_instance_date"`

	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	SubmittedAt *time.Time     `json:"submitted_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	AssignedTo           User                  `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Checker1             User                  `gorm:"foreignKey:Checker1ID" json:"checker1,omitempty"`
	Checker2             User                  `gorm:"foreignKey:Checker2ID" json:"checker2,omitempty"`
	Instances            []TaskInstance        `gorm:"foreignKey:BaseTaskID" json:"instances,omitempty"`
	NotificationSettings *NotificationSettings `gorm:"foreignKey:TaskID" json:"notification_settings,omitempty"`
}
