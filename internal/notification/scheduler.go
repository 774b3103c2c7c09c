package notification

import (
	"fmt"
	"time"

	"github.com/auditflow/task-audit-api/internal/constants"
	"github.com/auditflow/task-audit-api/internal/models"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one scheduled reminder. The scheduler only computes what to
// send and when; delivery (email, in-app) is owned by the caller, and
// ViaEmail is advisory.
type Event struct {
	Date          time.Time       `json:"date"`
	RecipientID   uint64          `json:"recipient_id"`
	RecipientRole models.UserRole `json:"recipient_role"`
	Message       string          `json:"message"`
	Severity      Severity        `json:"severity"`
	ViaEmail      bool            `json:"via_email"`
}

// Schedule derives the full reminder timeline for a task from its due date
// and notification settings. It is a pure function of its inputs: the same
// task, settings and reference time always produce the same event list.
// A task without a due date yields an empty timeline.
//
// Pre-submission reminders go to every role whose notify flag is on, at
// today+(daysUntilDue-d) for each configured day offset d that still fits
// before the due date. Post-due reminders escalate to the checkers over a
// fixed 30-day horizon and are emitted only while the task has not been
// submitted.
func Schedule(task *models.Task, settings *models.NotificationSettings, now time.Time) []Event {
	if task.DueDate == nil || settings == nil {
		return []Event{}
	}

	today := startOfDay(now)
	due := startOfDay(*task.DueDate)
	daysUntilDue := int(due.Sub(today).Hours() / 24)

	events := []Event{}
	events = append(events, preDueEvents(task, settings, today, daysUntilDue)...)
	events = append(events, postDueEvents(task, settings, due)...)
	return events
}

func preDueEvents(task *models.Task, settings *models.NotificationSettings, today time.Time, daysUntilDue int) []Event {
	if !settings.EnablePreNotifications || daysUntilDue < 0 {
		return nil
	}

	preDays := settings.PreDays()

	var events []Event
	// Largest offset first, so the timeline comes out in date order.
	for i := len(preDays) - 1; i >= 0; i-- {
		d := preDays[i]
		if d > daysUntilDue {
			continue
		}
		date := today.AddDate(0, 0, daysUntilDue-d)

		if settings.NotifyMaker {
			events = append(events, Event{
				Date:          date,
				RecipientID:   task.AssignedToID,
				RecipientRole: models.RoleMaker,
				Message:       fmt.Sprintf("Task %q is due in %d days", task.Name, d),
				Severity:      SeverityWarning,
				ViaEmail:      settings.SendEmails,
			})
		}

		checkerMsg := fmt.Sprintf("Task %q is due in %d days and will need your review", task.Name, d)
		if settings.NotifyChecker1 {
			events = append(events, Event{
				Date:          date,
				RecipientID:   task.Checker1ID,
				RecipientRole: models.RoleChecker1,
				Message:       checkerMsg,
				Severity:      SeverityWarning,
				ViaEmail:      settings.SendEmails,
			})
		}
		if settings.NotifyChecker2 {
			events = append(events, Event{
				Date:          date,
				RecipientID:   task.Checker2ID,
				RecipientRole: models.RoleChecker2,
				Message:       checkerMsg,
				Severity:      SeverityWarning,
				ViaEmail:      settings.SendEmails,
			})
		}
	}
	return events
}

func postDueEvents(task *models.Task, settings *models.NotificationSettings, due time.Time) []Event {
	if !settings.EnablePostNotifications {
		return nil
	}
	// Post-due reminders stop once the maker has submitted.
	if task.Status != models.TaskStatusPending && task.Status != models.TaskStatusInProgress {
		return nil
	}

	events := []Event{{
		Date:          due,
		RecipientID:   task.Checker1ID,
		RecipientRole: models.RoleChecker1,
		Message:       fmt.Sprintf("Task %q is now due and not submitted", task.Name),
		Severity:      SeverityError,
		ViaEmail:      settings.SendEmails,
	}}

	step := 1
	if settings.PostNotificationFrequency == models.PostNotifyWeekly {
		step = 7
	}

	for i := 1; i <= constants.PostDueHorizonDays; i += step {
		date := due.AddDate(0, 0, i)
		msg := fmt.Sprintf("Task %q is %d days overdue and has not been submitted", task.Name, i)

		events = append(events, Event{
			Date:          date,
			RecipientID:   task.Checker1ID,
			RecipientRole: models.RoleChecker1,
			Message:       msg,
			Severity:      SeverityError,
			ViaEmail:      settings.SendEmails,
		})
		if i > 1 {
			events = append(events, Event{
				Date:          date,
				RecipientID:   task.Checker2ID,
				RecipientRole: models.RoleChecker2,
				Message:       msg,
				Severity:      SeverityError,
				ViaEmail:      settings.SendEmails,
			})
		}
	}
	return events
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
