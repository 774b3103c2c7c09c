package repository

import (
	"github.com/auditflow/task-audit-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNotificationSettingsRepository is a GORM implementation of
// NotificationSettingsRepository
type GormNotificationSettingsRepository struct {
	db *gorm.DB
}

// NewNotificationSettingsRepository creates a new NotificationSettingsRepository
func NewNotificationSettingsRepository(db *gorm.DB) NotificationSettingsRepository {
	return &GormNotificationSettingsRepository{db: db}
}

// Upsert creates or replaces the settings row for a task
func (r *GormNotificationSettingsRepository) Upsert(settings *models.NotificationSettings) error {
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
}

// FindByTaskID finds settings for a task
func (r *GormNotificationSettingsRepository) FindByTaskID(taskID uint64) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	if err := r.db.Where("task_id = ?", taskID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}
