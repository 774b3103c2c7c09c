package escalation

import (
	"time"

	"github.com/auditflow/task-audit-api/internal/models"
)

const (
	ReasonRejected = "Task was rejected"
	ReasonOverdue  = "Task is overdue"
)

// Escalation is the effective escalation state of a task, either the
// explicit block stored on the task or one inferred from its status and
// due date. Exactly one of the two is authoritative at a time; explicit
// always wins.
type Escalation struct {
	IsEscalated bool                `json:"is_escalated"`
	Priority    models.TaskPriority `json:"priority,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	Inferred    bool                `json:"inferred"`
}

// Evaluate derives the effective escalation for a task at the given time.
// It is read-only and idempotent: evaluating the same task at the same
// instant always yields the same result.
func Evaluate(task *models.Task, now time.Time) Escalation {
	if task.IsEscalated {
		return Escalation{
			IsEscalated: true,
			Priority:    task.EscalationPriority,
			Reason:      task.EscalationReason,
		}
	}

	if task.Status == models.TaskStatusRejected {
		return Escalation{
			IsEscalated: true,
			Priority:    models.PriorityHigh,
			Reason:      ReasonRejected,
			Inferred:    true,
		}
	}

	if (task.Status == models.TaskStatusPending || task.Status == models.TaskStatusInProgress) &&
		task.DueDate != nil && task.DueDate.Before(now) {
		return Escalation{
			IsEscalated: true,
			Priority:    overduePriority(daysOverdue(*task.DueDate, now)),
			Reason:      ReasonOverdue,
			Inferred:    true,
		}
	}

	return Escalation{}
}

// daysOverdue counts whole days between the due date and now.
func daysOverdue(due, now time.Time) int {
	return int(now.Sub(due).Hours() / 24)
}

// overduePriority maps whole days overdue to a priority. Boundaries are
// strict: exactly 14 days overdue is high, not critical.
func overduePriority(days int) models.TaskPriority {
	switch {
	case days > 14:
		return models.PriorityCritical
	case days > 7:
		return models.PriorityHigh
	case days > 3:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
