package recurrence

import (
	"errors"
	"time"

	"github.com/auditflow/task-audit-api/internal/models"
)

// ErrNotRecurring is returned when a rollover is requested for a task whose
// frequency produces no next date.
var ErrNotRecurring = errors.New("task is not recurring")

// NextDueDate computes the due date of the period after d for the given
// frequency. ok is false for one-time (and unknown) frequencies.
//
// Month-based frequencies use time.Time.AddDate, which normalizes overflow:
// Jan 31 + 1 month lands on Mar 2 in a leap year and Mar 3 otherwise,
// rather than collapsing to the last day of February.
func NextDueDate(d time.Time, frequency models.TaskFrequency) (time.Time, bool) {
	switch frequency {
	case models.FrequencyDaily:
		return d.AddDate(0, 0, 1), true
	case models.FrequencyWeekly:
		return d.AddDate(0, 0, 7), true
	case models.FrequencyFortnightly:
		return d.AddDate(0, 0, 14), true
	case models.FrequencyMonthly:
		return d.AddDate(0, 1, 0), true
	case models.FrequencyQuarterly:
		return d.AddDate(0, 3, 0), true
	case models.FrequencyAnnually:
		return d.AddDate(1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// InstanceInput carries everything needed to build a new TaskInstance.
// Status defaults to pending when empty.
type InstanceInput struct {
	BaseTaskID   uint64
	DueDate      time.Time
	AssignedToID uint64
	Checker1ID   uint64
	Checker2ID   uint64
	Status       models.TaskStatus
}

// NewInstance builds a TaskInstance with a frozen assignment triple, a
// "Mon YYYY" reference label derived from the due date, and empty approval,
// comment and attachment collections.
func NewInstance(in InstanceInput) *models.TaskInstance {
	status := in.Status
	if status == "" {
		status = models.TaskStatusPending
	}

	start, end := periodBounds(in.DueDate)

	return &models.TaskInstance{
		BaseTaskID:        in.BaseTaskID,
		Status:            status,
		DueDate:           in.DueDate,
		AssignedToID:      in.AssignedToID,
		Checker1ID:        in.Checker1ID,
		Checker2ID:        in.Checker2ID,
		InstanceReference: in.DueDate.Format("Jan 2006"),
		PeriodStart:       start,
		PeriodEnd:         end,
		Approvals:         []models.Approval{},
		Comments:          []models.Comment{},
		Attachments:       []models.Attachment{},
	}
}

// Rollover computes the successor instance for a recurring task and the
// task's new bookkeeping. The new instance carries the task's *current*
// assignment triple, not the triple frozen on earlier instances.
//
// nextDate precedence: the task's stored NextInstanceDate if set, else
// NextDueDate(currentDue, frequency). One-time tasks fail with
// ErrNotRecurring rather than silently doing nothing.
func Rollover(task *models.Task, currentDue time.Time) (*models.TaskInstance, time.Time, error) {
	computed, ok := NextDueDate(currentDue, task.Frequency)
	if !ok {
		return nil, time.Time{}, ErrNotRecurring
	}

	nextDate := computed
	if task.NextInstanceDate != nil {
		nextDate = *task.NextInstanceDate
	}

	instance := NewInstance(InstanceInput{
		BaseTaskID:   task.ID,
		DueDate:      nextDate,
		AssignedToID: task.AssignedToID,
		Checker1ID:   task.Checker1ID,
		Checker2ID:   task.Checker2ID,
	})

	following, _ := NextDueDate(nextDate, task.Frequency)
	return instance, following, nil
}

// periodBounds brackets a due date with the calendar period it closes:
// the first instant of its month through the due date itself.
func periodBounds(due time.Time) (time.Time, time.Time) {
	start := time.Date(due.Year(), due.Month(), 1, 0, 0, 0, 0, due.Location())
	return start, due
}
