package repository

import (
	"time"

	"github.com/auditflow/task-audit-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskInstanceRepository is a GORM implementation of TaskInstanceRepository
type GormTaskInstanceRepository struct {
	db *gorm.DB
}

// NewTaskInstanceRepository creates a new TaskInstanceRepository
func NewTaskInstanceRepository(db *gorm.DB) TaskInstanceRepository {
	return &GormTaskInstanceRepository{db: db}
}

// Create creates a new task instance
func (r *GormTaskInstanceRepository) Create(instance *models.TaskInstance) error {
	return r.db.Create(instance).Error
}

// FindByID finds an instance by ID with optional preloading
func (r *GormTaskInstanceRepository) FindByID(id uint64, preload ...string) (*models.TaskInstance, error) {
	var instance models.TaskInstance
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&instance, id).Error; err != nil {
		return nil, err
	}

	return &instance, nil
}

// ListByTask lists all instances of a task, newest due date first
func (r *GormTaskInstanceRepository) ListByTask(taskID uint64) ([]models.TaskInstance, error) {
	var instances []models.TaskInstance
	err := r.db.Where("base_task_id = ?", taskID).
		Order("due_date DESC").
		Find(&instances).Error
	return instances, err
}

// UpdateWithStamp applies the update as a compare-and-swap on updated_at,
// returning ErrStaleWrite when a concurrent writer got there first.
func (r *GormTaskInstanceRepository) UpdateWithStamp(instance *models.TaskInstance, stamp time.Time) error {
	result := r.db.Model(&models.TaskInstance{}).
		Where("id = ? AND updated_at = ?", instance.ID, stamp).
		Select("*").
		Omit("created_at").
		Updates(instance)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}
	return nil
}

// AppendApproval appends an approval record
func (r *GormTaskInstanceRepository) AppendApproval(approval *models.Approval) error {
	return r.db.Create(approval).Error
}

// AppendComment appends a comment to an instance
func (r *GormTaskInstanceRepository) AppendComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// AppendAttachment appends attachment metadata to an instance
func (r *GormTaskInstanceRepository) AppendAttachment(attachment *models.Attachment) error {
	return r.db.Create(attachment).Error
}
