package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/auditflow/task-audit-api/internal/escalation"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/auditflow/task-audit-api/internal/notification"
	"github.com/auditflow/task-audit-api/internal/recurrence"
	"github.com/auditflow/task-audit-api/internal/repository"
	"github.com/auditflow/task-audit-api/internal/workflow"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrNameRequired     = errors.New("name is required")
	ErrAssigneeMissing  = errors.New("one or more assigned users do not exist")
	ErrDueDateRequired  = errors.New("recurring tasks require a due date")
	ErrConcurrentUpdate = errors.New("task was modified concurrently, reload and retry")
	ErrSettingsNotFound = errors.New("notification settings not found")
	ErrNotEscalated     = errors.New("task is not explicitly escalated")
)

// AssignmentError reports a maker-checker collision along with the request
// field it should be attributed to.
type AssignmentError struct {
	Result workflow.AssignmentResult
}

func (e *AssignmentError) Error() string {
	return e.Result.String()
}

// Field returns the offending request field.
func (e *AssignmentError) Field() string {
	return e.Result.Field()
}

// TaskService handles task business logic.
type TaskService struct {
	taskRepo     repository.TaskRepository
	instanceRepo repository.TaskInstanceRepository
	userRepo     repository.UserRepository
	settingsRepo repository.NotificationSettingsRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	taskRepo repository.TaskRepository,
	instanceRepo repository.TaskInstanceRepository,
	userRepo repository.UserRepository,
	settingsRepo repository.NotificationSettingsRepository,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		instanceRepo: instanceRepo,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
	}
}

// ListTasksInput represents filters for listing tasks.
type ListTasksInput struct {
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

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Name         string
	Description  string
	Category     string
	Priority     models.TaskPriority
	DueDate      *time.Time
	Frequency    models.TaskFrequency
	IsRecurring  bool
	AssignedToID uint64
	Checker1ID   uint64
	Checker2ID   uint64
	Settings     *models.NotificationSettings
}

// UpdateTaskInput represents input for updating a task. UpdatedAt is the
// stamp the client read; the update is refused if the row moved on since.
type UpdateTaskInput struct {
	Name         *string
	Description  *string
	Category     *string
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	AssignedToID *uint64
	Checker1ID   *uint64
	Checker2ID   *uint64
	Observation  *models.ObservationStatus
	UpdatedAt    time.Time
}

// ListTasks returns tasks matching the provided filters.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:        input.Status,
		AssignedToID:  input.AssignedToID,
		CheckerID:     input.CheckerID,
		Category:      input.Category,
		IsRecurring:   input.IsRecurring,
		DueDateFrom:   input.DueDateFrom,
		DueDateTo:     input.DueDateTo,
		SortByDueDate: input.SortByDueDate,
		Page:          input.Page,
		PageSize:      input.PageSize,
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data.
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID,
		"AssignedTo", "Checker1", "Checker2", "NotificationSettings")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask validates the assignment triple, creates the task with its
// notification settings, and spawns the first instance.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}

	if result := workflow.ValidateAssignment(input.AssignedToID, input.Checker1ID, input.Checker2ID); result != workflow.AssignmentValid {
		return nil, &AssignmentError{Result: result}
	}

	if err := s.ensureUsersExist(input.AssignedToID, input.Checker1ID, input.Checker2ID); err != nil {
		return nil, err
	}

	frequency := input.Frequency
	if frequency == "" {
		frequency = models.FrequencyOneTime
	}
	if input.IsRecurring {
		if input.DueDate == nil {
			return nil, ErrDueDateRequired
		}
		if _, ok := recurrence.NextDueDate(*input.DueDate, frequency); !ok {
			return nil, recurrence.ErrNotRecurring
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	task := &models.Task{
		Name:         input.Name,
		Description:  input.Description,
		Category:     input.Category,
		Priority:     priority,
		Status:       models.TaskStatusPending,
		DueDate:      input.DueDate,
		Frequency:    frequency,
		IsRecurring:  input.IsRecurring,
		Observation:  models.ObservationNo,
		AssignedToID: input.AssignedToID,
		Checker1ID:   input.Checker1ID,
		Checker2ID:   input.Checker2ID,
	}

	if task.IsRecurring {
		next, _ := recurrence.NextDueDate(*task.DueDate, task.Frequency)
		task.NextInstanceDate = &next
	}

	settings := input.Settings
	if settings == nil {
		settings = defaultSettings()
	}

	// Every task gets an initial instance; the approval pipeline always
	// runs against instances, one-off tasks simply never roll over.
	instanceDue := time.Now()
	if task.DueDate != nil {
		instanceDue = *task.DueDate
	}
	instance := recurrence.NewInstance(recurrence.InstanceInput{
		DueDate:      instanceDue,
		AssignedToID: task.AssignedToID,
		Checker1ID:   task.Checker1ID,
		Checker2ID:   task.Checker2ID,
	})

	// Task, settings, and first instance land in one transaction.
	if err := s.taskRepo.CreateWithSetup(task, settings, instance); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTask(task.ID)
}

// UpdateTask applies a partial update. The assignment triple is re-validated
// whenever any of its fields changes, and the write is a compare-and-swap
// on the stamp the client read.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	stamp := input.UpdatedAt
	if stamp.IsZero() {
		stamp = task.UpdatedAt
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrNameRequired
		}
		task.Name = *input.Name
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Category != nil {
		task.Category = *input.Category
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Observation != nil {
		task.Observation = *input.Observation
	}

	assignmentChanged := false
	if input.AssignedToID != nil {
		task.AssignedToID = *input.AssignedToID
		assignmentChanged = true
	}
	if input.Checker1ID != nil {
		task.Checker1ID = *input.Checker1ID
		assignmentChanged = true
	}
	if input.Checker2ID != nil {
		task.Checker2ID = *input.Checker2ID
		assignmentChanged = true
	}
	if assignmentChanged {
		if result := workflow.ValidateAssignment(task.AssignedToID, task.Checker1ID, task.Checker2ID); result != workflow.AssignmentValid {
			return nil, &AssignmentError{Result: result}
		}
		if err := s.ensureUsersExist(task.AssignedToID, task.Checker1ID, task.Checker2ID); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.UpdateWithStamp(task, stamp); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(task.ID)
}

// DeleteTask deletes a task and its instances.
func (s *TaskService) DeleteTask(taskID uint64) error {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// GenerateNextInstance rolls a recurring task over to its next period: a
// new instance frozen with the task's current triple, CurrentInstanceID
// moved forward, NextInstanceDate recomputed.
func (s *TaskService) GenerateNextInstance(taskID uint64) (*models.TaskInstance, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	currentDue := time.Now()
	if task.DueDate != nil {
		currentDue = *task.DueDate
	}
	if task.CurrentInstanceID != nil {
		current, err := s.instanceRepo.FindByID(*task.CurrentInstanceID)
		if err == nil {
			currentDue = current.DueDate
		}
	}

	instance, following, err := recurrence.Rollover(task, currentDue)
	if err != nil {
		return nil, err
	}

	if err := s.instanceRepo.Create(instance); err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	stamp := task.UpdatedAt
	task.CurrentInstanceID = &instance.ID
	task.NextInstanceDate = &following
	due := instance.DueDate
	task.DueDate = &due
	task.Status = models.TaskStatusPending
	task.SubmittedAt = nil
	task.CompletedAt = nil

	if err := s.taskRepo.UpdateWithStamp(task, stamp); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("failed to update task bookkeeping: %w", err)
	}

	return instance, nil
}

// EscalateTaskInput represents a manual escalation.
type EscalateTaskInput struct {
	TaskID   uint64
	ActorID  uint64
	Priority models.TaskPriority
	Reason   string
}

// EscalateTask sets the explicit escalation block. Escalating an already
// escalated task updates its priority and reason in place.
func (s *TaskService) EscalateTask(input EscalateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	now := time.Now()
	task.IsEscalated = true
	task.EscalationPriority = input.Priority
	task.EscalationReason = input.Reason
	task.EscalatedAt = &now
	task.EscalatedByID = &input.ActorID

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to escalate task: %w", err)
	}

	return task, nil
}

// DeescalateTask clears the explicit escalation block entirely; subsequent
// reads fall back to inferred escalation.
func (s *TaskService) DeescalateTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !task.IsEscalated {
		return nil, ErrNotEscalated
	}

	task.IsEscalated = false
	task.EscalationPriority = ""
	task.EscalationReason = ""
	task.EscalatedAt = nil
	task.EscalatedByID = nil

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to de-escalate task: %w", err)
	}

	return task, nil
}

// EscalatedTask pairs a task with its effective escalation.
type EscalatedTask struct {
	Task       models.Task           `json:"task"`
	Escalation escalation.Escalation `json:"escalation"`
}

// ListEscalatedTasks classifies the task set read-only and returns those
// whose effective escalation (explicit or inferred) is set.
func (s *TaskService) ListEscalatedTasks(now time.Time) ([]EscalatedTask, error) {
	tasks, _, err := s.taskRepo.List(repository.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	escalated := []EscalatedTask{}
	for _, task := range tasks {
		esc := escalation.Evaluate(&task, now)
		if esc.IsEscalated {
			escalated = append(escalated, EscalatedTask{Task: task, Escalation: esc})
		}
	}

	return escalated, nil
}

// NotificationPreview is the computed reminder timeline for one task plus
// resolved recipient contact details. Dispatch is owned by the caller.
type NotificationPreview struct {
	Events     []notification.Event   `json:"events"`
	Recipients map[uint64]models.User `json:"recipients"`
}

// PreviewNotifications derives the notification timeline for a task.
func (s *TaskService) PreviewNotifications(taskID uint64, now time.Time) (*NotificationPreview, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	settings, err := s.settingsRepo.FindByTaskID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}

	events := notification.Schedule(task, settings, now)

	recipients := make(map[uint64]models.User)
	for _, ev := range events {
		if _, ok := recipients[ev.RecipientID]; ok {
			continue
		}
		user, err := s.userRepo.FindByID(ev.RecipientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to resolve recipient %d: %w", ev.RecipientID, err)
		}
		recipients[ev.RecipientID] = *user
	}

	return &NotificationPreview{Events: events, Recipients: recipients}, nil
}

// UpdateNotificationSettings replaces a task's notification settings.
func (s *TaskService) UpdateNotificationSettings(taskID uint64, settings *models.NotificationSettings) (*models.NotificationSettings, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	settings.TaskID = taskID
	if err := s.settingsRepo.Upsert(settings); err != nil {
		return nil, fmt.Errorf("failed to update notification settings: %w", err)
	}

	return s.settingsRepo.FindByTaskID(taskID)
}

func (s *TaskService) ensureUsersExist(ids ...uint64) error {
	unique := uniqueUint64(ids)
	count, err := s.userRepo.CountByIDs(unique)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(unique) {
		return ErrAssigneeMissing
	}
	return nil
}

func defaultSettings() *models.NotificationSettings {
	return &models.NotificationSettings{
		EnablePreNotifications:    true,
		EnablePostNotifications:   true,
		PostNotificationFrequency: models.PostNotifyDaily,
		SendEmails:                true,
		NotifyMaker:               true,
		NotifyChecker1:            true,
	}
}

// uniqueUint64 removes duplicate values from a slice of uint64.
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
