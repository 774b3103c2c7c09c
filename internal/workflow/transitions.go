package workflow

import (
	"fmt"

	"github.com/auditflow/task-audit-api/internal/models"
)

// Action names a state-machine transition for error reporting.
type Action string

const (
	ActionSubmit           Action = "submit"
	ActionChecker1Decision Action = "checker1-decision"
	ActionChecker2Decision Action = "checker2-decision"
	ActionRework           Action = "rework"
)

// IllegalTransitionError reports a transition attempted from a state outside
// its legal source set. The entity is left unchanged; callers must not
// assume partial effects.
type IllegalTransitionError struct {
	Action Action
	From   models.TaskStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s from status %q", e.Action, e.From)
}

func illegal(action Action, from models.TaskStatus) error {
	return &IllegalTransitionError{Action: action, From: from}
}

// Submit moves a not-yet-submitted item to submitted. Legal only from
// pending or in-progress; the two are not distinguished by approval logic.
func Submit(from models.TaskStatus) (models.TaskStatus, error) {
	switch from {
	case models.TaskStatusPending, models.TaskStatusInProgress:
		return models.TaskStatusSubmitted, nil
	default:
		return from, illegal(ActionSubmit, from)
	}
}

// Checker1Decision applies the first checker's decision. Legal only from
// submitted.
func Checker1Decision(from models.TaskStatus, decision models.ApprovalDecision) (models.TaskStatus, error) {
	if from != models.TaskStatusSubmitted {
		return from, illegal(ActionChecker1Decision, from)
	}
	if decision == models.DecisionApproved {
		return models.TaskStatusChecker1Approved, nil
	}
	return models.TaskStatusRejected, nil
}

// Checker2Decision applies the final gate. Legal only from
// checker1-approved; a checker2 decision arriving before checker1's is an
// illegal transition, never queued.
func Checker2Decision(from models.TaskStatus, decision models.ApprovalDecision) (models.TaskStatus, error) {
	if from != models.TaskStatusChecker1Approved {
		return from, illegal(ActionChecker2Decision, from)
	}
	if decision == models.DecisionApproved {
		return models.TaskStatusApproved, nil
	}
	return models.TaskStatusRejected, nil
}

// Rework returns a rejected item to the maker for another pass.
func Rework(from models.TaskStatus) (models.TaskStatus, error) {
	if from != models.TaskStatusRejected {
		return from, illegal(ActionRework, from)
	}
	return models.TaskStatusInProgress, nil
}

// IsTerminal reports whether no further transition can leave the status.
// Rejected is not terminal: rework returns control to the maker.
func IsTerminal(status models.TaskStatus) bool {
	return status == models.TaskStatusApproved
}
