package repository

import (
	"time"

	"github.com/auditflow/task-audit-api/internal/database"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/auditflow/task-audit-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// CreateWithSetup creates a task, its notification settings, and its first
// instance atomically and wires the instance in as the task's current one.
// A failure at any step rolls back the whole create, so a task never exists
// without its settings or instance.
func (r *GormTaskRepository) CreateWithSetup(task *models.Task, settings *models.NotificationSettings, instance *models.TaskInstance) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		settings.TaskID = task.ID
		if err := tx.Create(settings).Error; err != nil {
			return err
		}

		instance.BaseTaskID = task.ID
		if err := tx.Create(instance).Error; err != nil {
			return err
		}

		task.CurrentInstanceID = &instance.ID
		return tx.Model(task).Update("current_instance_id", instance.ID).Error
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.CheckerID != nil {
		query = query.Where("tasks.checker1_id = ? OR tasks.checker2_id = ?", *filter.CheckerID, *filter.CheckerID)
	}
	if filter.Category != nil {
		query = query.Where("tasks.category = ?", *filter.Category)
	}
	if filter.IsRecurring != nil {
		query = query.Where("tasks.is_recurring = ?", *filter.IsRecurring)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDueDate {
		listQuery = listQuery.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.Preload("AssignedTo").Preload("Checker1").Preload("Checker2").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// UpdateWithStamp applies the update as a compare-and-swap on updated_at.
// A concurrent writer that advanced the stamp makes this a no-op reported
// as ErrStaleWrite; the caller re-reads and retries or surfaces a conflict.
func (r *GormTaskRepository) UpdateWithStamp(task *models.Task, stamp time.Time) error {
	result := r.db.Model(&models.Task{}).
		Where("id = ? AND updated_at = ?", task.ID, stamp).
		Select("*").
		Omit("created_at").
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}
	return nil
}

// Delete soft deletes a task, cascading to its instances
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("base_task_id = ?", id).Delete(&models.TaskInstance{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}
