package models

import (
	"time"

	"gorm.io/gorm"
)

// Attachment holds file metadata only. The file bytes live in external
// storage owned by the surrounding application.
type Attachment struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	TaskInstanceID uint64         `gorm:"not null;index" json:"task_instance_id"`
	UserID         uint64         `gorm:"not null" json:"user_id"`
	FileName       string         `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType    string         `gorm:"type:varchar(100)" json:"content_type"`
	SizeBytes      int64          `json:"size_bytes"`
	StorageKey     string         `gorm:"type:varchar(512);not null" json:"storage_key"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
