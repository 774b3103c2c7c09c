package models

import "time"

type ApprovalDecision string

const (
	DecisionApproved ApprovalDecision = "approved"
	DecisionRejected ApprovalDecision = "rejected"
)

// Approval is an append-only record of a checker decision. History is never
// mutated; a checker re-decides only through a new state-machine transition.
type Approval struct {
	ID             uint64           `gorm:"primarykey" json:"id"`
	TaskInstanceID uint64           `gorm:"not null;index" json:"task_instance_id"`
	UserID         uint64           `gorm:"not null;index" json:"user_id"`
	UserRole       UserRole         `gorm:"type:varchar(20);not null" json:"user_role"`
	Decision       ApprovalDecision `gorm:"type:varchar(20);not null" json:"decision"`
	Comment        string           `gorm:"type:text" json:"comment"`
	CreatedAt      time.Time        `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
