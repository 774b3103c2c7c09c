package escalation

import (
	"testing"
	"time"

	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)

func overdueTask(daysAgo int, status models.TaskStatus) *models.Task {
	due := now.AddDate(0, 0, -daysAgo)
	return &models.Task{Status: status, DueDate: &due}
}

func TestEvaluate_ExplicitAlwaysWins(t *testing.T) {
	due := now.AddDate(0, 0, -30) // would infer critical
	task := &models.Task{
		Status:             models.TaskStatusPending,
		DueDate:            &due,
		IsEscalated:        true,
		EscalationPriority: models.PriorityLow,
		EscalationReason:   "Management watchlist",
	}

	got := Evaluate(task, now)
	require.True(t, got.IsEscalated)
	require.False(t, got.Inferred)
	require.Equal(t, models.PriorityLow, got.Priority)
	require.Equal(t, "Management watchlist", got.Reason)
}

func TestEvaluate_RejectedIsAlwaysHigh(t *testing.T) {
	// Rejected wins over the overdue ladder regardless of due date.
	for _, daysAgo := range []int{0, 5, 30} {
		got := Evaluate(overdueTask(daysAgo, models.TaskStatusRejected), now)
		require.True(t, got.IsEscalated)
		require.True(t, got.Inferred)
		require.Equal(t, models.PriorityHigh, got.Priority)
		require.Equal(t, ReasonRejected, got.Reason)
	}
}

func TestEvaluate_OverdueLadder(t *testing.T) {
	tests := []struct {
		daysAgo int
		want    models.TaskPriority
	}{
		{1, models.PriorityLow},
		{3, models.PriorityLow},
		{4, models.PriorityMedium},
		{7, models.PriorityMedium},
		{8, models.PriorityHigh},
		{10, models.PriorityHigh},
		{14, models.PriorityHigh}, // exactly 14 is high, not critical
		{15, models.PriorityCritical},
	}

	for _, tt := range tests {
		got := Evaluate(overdueTask(tt.daysAgo, models.TaskStatusPending), now)
		require.True(t, got.IsEscalated, "%d days overdue", tt.daysAgo)
		require.Equal(t, ReasonOverdue, got.Reason)
		require.Equal(t, tt.want, got.Priority, "%d days overdue", tt.daysAgo)
	}
}

func TestEvaluate_InProgressOverdue(t *testing.T) {
	got := Evaluate(overdueTask(10, models.TaskStatusInProgress), now)
	require.True(t, got.IsEscalated)
	require.Equal(t, models.PriorityHigh, got.Priority)
}

func TestEvaluate_NotEscalated(t *testing.T) {
	// Future due date
	due := now.AddDate(0, 0, 5)
	got := Evaluate(&models.Task{Status: models.TaskStatusPending, DueDate: &due}, now)
	require.False(t, got.IsEscalated)

	// Overdue but already submitted: the maker has acted
	got = Evaluate(overdueTask(10, models.TaskStatusSubmitted), now)
	require.False(t, got.IsEscalated)

	// Approved
	got = Evaluate(overdueTask(10, models.TaskStatusApproved), now)
	require.False(t, got.IsEscalated)

	// No due date at all
	got = Evaluate(&models.Task{Status: models.TaskStatusPending}, now)
	require.False(t, got.IsEscalated)
}

func TestEvaluate_Idempotent(t *testing.T) {
	task := overdueTask(10, models.TaskStatusPending)
	first := Evaluate(task, now)
	second := Evaluate(task, now)
	require.Equal(t, first, second)
}
