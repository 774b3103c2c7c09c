package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskInstance is one period of a recurring task. The assignment triple is
// frozen at instance-creation time; later reassignment of the template only
// affects instances created afterwards.
type TaskInstance struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	BaseTaskID uint64     `gorm:"not null;index" json:"base_task_id"`
	Status     TaskStatus `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	DueDate    time.Time  `gorm:"not null" json:"due_date"`

	AssignedToID uint64 `gorm:"not null" json:"assigned_to_id"`
	Checker1ID   uint64 `gorm:"not null" json:"checker1_id"`
	Checker2ID   uint64 `gorm:"not null" json:"checker2_id"`

	// Human label derived from the due date, e.g. "Mar 2026".
	InstanceReference string    `gorm:"type:varchar(50);not null" json:"instance_reference"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`

	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	SubmittedAt *time.Time     `json:"submitted_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	BaseTask    Task         `gorm:"foreignKey:BaseTaskID" json:"base_task,omitempty"`
	AssignedTo  User         `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Approvals   []Approval   `gorm:"foreignKey:TaskInstanceID" json:"approvals,omitempty"`
	Comments    []Comment    `gorm:"foreignKey:TaskInstanceID" json:"comments,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:TaskInstanceID" json:"attachments,omitempty"`
}
