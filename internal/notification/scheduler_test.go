package notification

import (
	"testing"
	"time"

	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func testTask(status models.TaskStatus, due *time.Time) *models.Task {
	return &models.Task{
		Name:         "Monthly reconciliation",
		Status:       status,
		DueDate:      due,
		AssignedToID: 1,
		Checker1ID:   2,
		Checker2ID:   3,
	}
}

func makerOnlySettings() *models.NotificationSettings {
	return &models.NotificationSettings{
		EnablePreNotifications: true,
		SendEmails:             true,
		NotifyMaker:            true,
	}
}

func TestSchedule_PreSubmissionDates(t *testing.T) {
	due := day(10)
	task := testTask(models.TaskStatusPending, &due)

	events := Schedule(task, makerOnlySettings(), now)

	// preDays {1,3,7}, daysUntilDue 10, one enabled role: exactly three
	// events at today+3, today+7 and today+9.
	require.Len(t, events, 3)
	require.Equal(t, day(3), events[0].Date)
	require.Equal(t, day(7), events[1].Date)
	require.Equal(t, day(9), events[2].Date)

	for _, ev := range events {
		require.Equal(t, uint64(1), ev.RecipientID)
		require.Equal(t, models.RoleMaker, ev.RecipientRole)
		require.Equal(t, SeverityWarning, ev.Severity)
		require.True(t, ev.ViaEmail)
	}
	require.Equal(t, `Task "Monthly reconciliation" is due in 7 days`, events[0].Message)
	require.Equal(t, `Task "Monthly reconciliation" is due in 1 days`, events[2].Message)
}

func TestSchedule_CheckerWording(t *testing.T) {
	due := day(10)
	task := testTask(models.TaskStatusPending, &due)
	settings := makerOnlySettings()
	settings.NotifyChecker1 = true
	settings.NotifyChecker2 = true

	events := Schedule(task, settings, now)
	require.Len(t, events, 9)

	// Roles emitted maker, checker1, checker2 per date.
	require.Equal(t, models.RoleChecker1, events[1].RecipientRole)
	require.Equal(t, uint64(2), events[1].RecipientID)
	require.Equal(t, `Task "Monthly reconciliation" is due in 7 days and will need your review`, events[1].Message)
	require.Equal(t, models.RoleChecker2, events[2].RecipientRole)
	require.Equal(t, uint64(3), events[2].RecipientID)
}

func TestSchedule_DisabledRolesNeverGenerated(t *testing.T) {
	due := day(10)
	task := testTask(models.TaskStatusPending, &due)
	settings := makerOnlySettings()
	settings.NotifyMaker = false

	events := Schedule(task, settings, now)
	require.Empty(t, events)
}

func TestSchedule_SameDayEvent(t *testing.T) {
	// daysUntilDue exactly matches a preDay: event lands on today.
	due := day(3)
	task := testTask(models.TaskStatusPending, &due)

	events := Schedule(task, makerOnlySettings(), now)
	require.Len(t, events, 2) // d=3 and d=1 fit; d=7 does not
	require.Equal(t, day(0), events[0].Date)
	require.Equal(t, day(2), events[1].Date)
}

func TestSchedule_CustomPreDays(t *testing.T) {
	due := day(20)
	task := testTask(models.TaskStatusPending, &due)
	settings := makerOnlySettings()
	settings.SetCustomPreDays([]int{14, 14, -2})

	events := Schedule(task, settings, now)
	require.Len(t, events, 4) // {1,3,7} baseline + custom 14
	require.Equal(t, day(6), events[0].Date)
}

func TestSchedule_NoDueDate(t *testing.T) {
	task := testTask(models.TaskStatusPending, nil)
	events := Schedule(task, makerOnlySettings(), now)
	require.NotNil(t, events)
	require.Empty(t, events)
}

func TestSchedule_PostDueDaily(t *testing.T) {
	due := day(-5)
	task := testTask(models.TaskStatusPending, &due)
	settings := &models.NotificationSettings{
		EnablePostNotifications:   true,
		PostNotificationFrequency: models.PostNotifyDaily,
		SendEmails:                true,
	}

	events := Schedule(task, settings, now)

	// One immediate event at the due date, checker1 only at day 1, both
	// checkers on days 2..30: 1 + 1 + 29*2 = 60.
	require.Len(t, events, 60)

	require.Equal(t, due, events[0].Date)
	require.Equal(t, models.RoleChecker1, events[0].RecipientRole)
	require.Equal(t, `Task "Monthly reconciliation" is now due and not submitted`, events[0].Message)

	require.Equal(t, day(-4), events[1].Date)
	require.Equal(t, models.RoleChecker1, events[1].RecipientRole)
	require.Equal(t, `Task "Monthly reconciliation" is 1 days overdue and has not been submitted`, events[1].Message)

	// Day 2 onwards addresses both checkers.
	require.Equal(t, models.RoleChecker1, events[2].RecipientRole)
	require.Equal(t, models.RoleChecker2, events[3].RecipientRole)
	require.Equal(t, events[2].Date, events[3].Date)

	last := events[len(events)-1]
	require.Equal(t, due.AddDate(0, 0, 30), last.Date)
	require.Equal(t, `Task "Monthly reconciliation" is 30 days overdue and has not been submitted`, last.Message)

	for _, ev := range events {
		require.Equal(t, SeverityError, ev.Severity)
	}
}

func TestSchedule_PostDueWeekly(t *testing.T) {
	due := day(-5)
	task := testTask(models.TaskStatusInProgress, &due)
	settings := &models.NotificationSettings{
		EnablePostNotifications:   true,
		PostNotificationFrequency: models.PostNotifyWeekly,
	}

	events := Schedule(task, settings, now)
	// Immediate + day 1 (checker1) + days 8,15,22,29 (both checkers).
	require.Len(t, events, 10)
	require.False(t, events[0].ViaEmail)
}

func TestSchedule_PostDueStopsAfterSubmission(t *testing.T) {
	due := day(-5)
	settings := &models.NotificationSettings{EnablePostNotifications: true}

	for _, status := range []models.TaskStatus{
		models.TaskStatusSubmitted,
		models.TaskStatusChecker1Approved,
		models.TaskStatusApproved,
	} {
		events := Schedule(testTask(status, &due), settings, now)
		require.Empty(t, events, "status %s", status)
	}
}

func TestSchedule_Deterministic(t *testing.T) {
	due := day(10)
	task := testTask(models.TaskStatusPending, &due)
	settings := makerOnlySettings()
	settings.NotifyChecker1 = true
	settings.EnablePostNotifications = true

	first := Schedule(task, settings, now)
	second := Schedule(task, settings, now)
	require.Equal(t, first, second)
}
