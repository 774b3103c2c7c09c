package repository

import (
	"errors"
	"time"

	"github.com/auditflow/task-audit-api/internal/models"
)

// ErrStaleWrite is returned when an optimistic-concurrency update finds the
// row's updated_at stamp no longer matches the one the caller read.
var ErrStaleWrite = errors.New("stale write: entity was modified concurrently")

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// CreateWithSetup creates a task together with its notification
	// settings and first instance in a single transaction
	CreateWithSetup(task *models.Task, settings *models.NotificationSettings, instance *models.TaskInstance) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// UpdateWithStamp updates a task only if its updated_at still equals
	// stamp, returning ErrStaleWrite otherwise
	UpdateWithStamp(task *models.Task, stamp time.Time) error

	// Delete soft deletes a task and its instances
	Delete(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status        *models.TaskStatus
	AssignedToID  *uint64
	CheckerID     *uint64
	Category      *string
	IsRecurring   *bool
	DueDateFrom   *time.Time
	DueDateTo     *time.Time
	SortByDueDate bool
	Page          int
	PageSize      int
}

// TaskInstanceRepository defines the interface for instance data access
type TaskInstanceRepository interface {
	// Create creates a new task instance
	Create(instance *models.TaskInstance) error

	// FindByID finds an instance by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.TaskInstance, error)

	// ListByTask lists all instances of a task, newest due date first
	ListByTask(taskID uint64) ([]models.TaskInstance, error)

	// UpdateWithStamp updates an instance only if its updated_at still
	// equals stamp, returning ErrStaleWrite otherwise
	UpdateWithStamp(instance *models.TaskInstance, stamp time.Time) error

	// AppendApproval appends an approval record; history is append-only
	AppendApproval(approval *models.Approval) error

	// AppendComment appends a comment to an instance
	AppendComment(comment *models.Comment) error

	// AppendAttachment appends attachment metadata to an instance
	AppendAttachment(attachment *models.Attachment) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// List lists all users
	List() ([]models.User, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete soft deletes a user
	Delete(id uint64) error

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ids []uint64) (int64, error)
}

// NotificationSettingsRepository defines the interface for per-task
// notification settings
type NotificationSettingsRepository interface {
	// Upsert creates or replaces the settings row for a task
	Upsert(settings *models.NotificationSettings) error

	// FindByTaskID finds settings for a task
	FindByTaskID(taskID uint64) (*models.NotificationSettings, error)
}
