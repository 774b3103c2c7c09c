package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/auditflow/task-audit-api/internal/repository"
	"github.com/auditflow/task-audit-api/internal/workflow"
	"gorm.io/gorm"
)

var (
	ErrInstanceNotFound = errors.New("task instance not found")
	ErrNotAssignedMaker = errors.New("only the assigned maker can perform this action")
	ErrNotChecker1      = errors.New("only checker1 can record this decision")
	ErrNotChecker2      = errors.New("only checker2 can record this decision")
	ErrCommentRequired  = errors.New("comment body is required")
)

// InstanceService applies approval-pipeline transitions to task instances.
// Every transition is a read-modify-write guarded by the instance's
// updated_at stamp, so concurrent decisions never interleave silently.
type InstanceService struct {
	taskRepo     repository.TaskRepository
	instanceRepo repository.TaskInstanceRepository
}

// NewInstanceService creates a new InstanceService.
func NewInstanceService(taskRepo repository.TaskRepository, instanceRepo repository.TaskInstanceRepository) *InstanceService {
	return &InstanceService{
		taskRepo:     taskRepo,
		instanceRepo: instanceRepo,
	}
}

// GetInstance returns an instance with its approval history, comments and
// attachment metadata.
func (s *InstanceService) GetInstance(instanceID uint64) (*models.TaskInstance, error) {
	instance, err := s.instanceRepo.FindByID(instanceID,
		"Approvals", "Approvals.User", "Comments", "Comments.User", "Attachments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to find instance: %w", err)
	}
	return instance, nil
}

// ListInstances returns all instances of a task, newest first.
func (s *InstanceService) ListInstances(taskID uint64) ([]models.TaskInstance, error) {
	instances, err := s.instanceRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return instances, nil
}

// Submit moves the instance from pending/in-progress to submitted on
// behalf of the assigned maker.
func (s *InstanceService) Submit(instanceID, actorID uint64) (*models.TaskInstance, error) {
	instance, err := s.findInstance(instanceID)
	if err != nil {
		return nil, err
	}

	if instance.AssignedToID != actorID {
		return nil, ErrNotAssignedMaker
	}

	next, err := workflow.Submit(instance.Status)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stamp := instance.UpdatedAt
	instance.Status = next
	instance.SubmittedAt = &now

	if err := s.saveInstance(instance, stamp); err != nil {
		return nil, err
	}

	s.mirrorToTemplate(instance)
	return instance, nil
}

// Checker1Decide records the first checker's decision on a submitted
// instance and appends the approval record.
func (s *InstanceService) Checker1Decide(instanceID, actorID uint64, decision models.ApprovalDecision, comment string) (*models.TaskInstance, error) {
	instance, err := s.findInstance(instanceID)
	if err != nil {
		return nil, err
	}

	if instance.Checker1ID != actorID {
		return nil, ErrNotChecker1
	}

	next, err := workflow.Checker1Decision(instance.Status, decision)
	if err != nil {
		return nil, err
	}

	stamp := instance.UpdatedAt
	instance.Status = next

	if err := s.saveInstance(instance, stamp); err != nil {
		return nil, err
	}

	approval := &models.Approval{
		TaskInstanceID: instance.ID,
		UserID:         actorID,
		UserRole:       models.RoleChecker1,
		Decision:       decision,
		Comment:        comment,
	}
	if err := s.instanceRepo.AppendApproval(approval); err != nil {
		return nil, fmt.Errorf("failed to record approval: %w", err)
	}

	s.mirrorToTemplate(instance)
	return instance, nil
}

// Checker2Decide records the final gate. Approval completes the instance;
// a decision arriving before checker1's is rejected by the state machine.
func (s *InstanceService) Checker2Decide(instanceID, actorID uint64, decision models.ApprovalDecision, comment string) (*models.TaskInstance, error) {
	instance, err := s.findInstance(instanceID)
	if err != nil {
		return nil, err
	}

	if instance.Checker2ID != actorID {
		return nil, ErrNotChecker2
	}

	next, err := workflow.Checker2Decision(instance.Status, decision)
	if err != nil {
		return nil, err
	}

	stamp := instance.UpdatedAt
	instance.Status = next
	if next == models.TaskStatusApproved {
		now := time.Now()
		instance.CompletedAt = &now
	}

	if err := s.saveInstance(instance, stamp); err != nil {
		return nil, err
	}

	approval := &models.Approval{
		TaskInstanceID: instance.ID,
		UserID:         actorID,
		UserRole:       models.RoleChecker2,
		Decision:       decision,
		Comment:        comment,
	}
	if err := s.instanceRepo.AppendApproval(approval); err != nil {
		return nil, fmt.Errorf("failed to record approval: %w", err)
	}

	s.mirrorToTemplate(instance)
	return instance, nil
}

// Rework returns a rejected instance to the maker.
func (s *InstanceService) Rework(instanceID, actorID uint64) (*models.TaskInstance, error) {
	instance, err := s.findInstance(instanceID)
	if err != nil {
		return nil, err
	}

	if instance.AssignedToID != actorID {
		return nil, ErrNotAssignedMaker
	}

	next, err := workflow.Rework(instance.Status)
	if err != nil {
		return nil, err
	}

	stamp := instance.UpdatedAt
	instance.Status = next
	instance.SubmittedAt = nil

	if err := s.saveInstance(instance, stamp); err != nil {
		return nil, err
	}

	s.mirrorToTemplate(instance)
	return instance, nil
}

// AddComment appends a comment to an instance.
func (s *InstanceService) AddComment(instanceID, actorID uint64, body string) (*models.Comment, error) {
	if body == "" {
		return nil, ErrCommentRequired
	}

	if _, err := s.findInstance(instanceID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskInstanceID: instanceID,
		UserID:         actorID,
		Body:           body,
	}
	if err := s.instanceRepo.AppendComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return comment, nil
}

// AddAttachment appends attachment metadata to an instance. The file
// itself lives in external storage.
func (s *InstanceService) AddAttachment(instanceID, actorID uint64, attachment *models.Attachment) (*models.Attachment, error) {
	if _, err := s.findInstance(instanceID); err != nil {
		return nil, err
	}

	attachment.TaskInstanceID = instanceID
	attachment.UserID = actorID
	if err := s.instanceRepo.AppendAttachment(attachment); err != nil {
		return nil, fmt.Errorf("failed to add attachment: %w", err)
	}

	return attachment, nil
}

func (s *InstanceService) findInstance(instanceID uint64) (*models.TaskInstance, error) {
	instance, err := s.instanceRepo.FindByID(instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to find instance: %w", err)
	}
	return instance, nil
}

func (s *InstanceService) saveInstance(instance *models.TaskInstance, stamp time.Time) error {
	if err := s.instanceRepo.UpdateWithStamp(instance, stamp); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return ErrConcurrentUpdate
		}
		return fmt.Errorf("failed to update instance: %w", err)
	}
	return nil
}

// mirrorToTemplate copies status and lifecycle stamps onto the owning task
// when the instance is the task's current one. The instance stays
// authoritative; the template mirror exists for display convenience, so a
// mirror failure is not surfaced to the caller.
func (s *InstanceService) mirrorToTemplate(instance *models.TaskInstance) {
	task, err := s.taskRepo.FindByID(instance.BaseTaskID)
	if err != nil {
		return
	}
	if task.CurrentInstanceID == nil || *task.CurrentInstanceID != instance.ID {
		return
	}

	task.Status = instance.Status
	task.SubmittedAt = instance.SubmittedAt
	task.CompletedAt = instance.CompletedAt
	_ = s.taskRepo.Update(task)
}
