package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	TaskInstanceID uint64         `gorm:"not null;index" json:"task_instance_id"`
	UserID         uint64         `gorm:"not null" json:"user_id"`
	Body           string         `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
