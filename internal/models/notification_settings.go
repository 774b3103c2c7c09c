package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type PostNotificationFrequency string

const (
	PostNotifyDaily  PostNotificationFrequency = "daily"
	PostNotifyWeekly PostNotificationFrequency = "weekly"
)

// BaselinePreDays are always part of the pre-notification schedule,
// regardless of custom days configured on top.
var BaselinePreDays = []int{1, 3, 7}

// NotificationSettings configures reminder generation for one task.
// Flag columns carry no database defaults so a disabled flag round-trips
// as stored; defaults are applied in code when a task is created without
// explicit settings.
type NotificationSettings struct {
	ID                        uint64                    `gorm:"primarykey" json:"id"`
	TaskID                    uint64                    `gorm:"not null;uniqueIndex" json:"task_id"`
	EnablePreNotifications    bool                      `gorm:"not null" json:"enable_pre_notifications"`
	CustomPreDaysCSV          string                    `gorm:"column:custom_pre_days;type:varchar(255)" json:"custom_pre_days"`
	EnablePostNotifications   bool                      `gorm:"not null" json:"enable_post_notifications"`
	PostNotificationFrequency PostNotificationFrequency `gorm:"type:varchar(10);not null" json:"post_notification_frequency"`
	SendEmails                bool                      `gorm:"not null" json:"send_emails"`
	NotifyMaker               bool                      `gorm:"not null" json:"notify_maker"`
	NotifyChecker1            bool                      `gorm:"not null" json:"notify_checker1"`
	NotifyChecker2            bool                      `gorm:"not null" json:"notify_checker2"`
	CreatedAt                 time.Time                 `json:"created_at"`
	UpdatedAt                 time.Time                 `json:"updated_at"`
}

// PreDays returns the effective pre-notification day offsets: the {1,3,7}
// baseline merged with any custom days, deduplicated, ascending, with
// non-positive values discarded.
func (s *NotificationSettings) PreDays() []int {
	seen := make(map[int]struct{})
	days := make([]int, 0, len(BaselinePreDays))
	for _, d := range BaselinePreDays {
		seen[d] = struct{}{}
		days = append(days, d)
	}
	for _, raw := range strings.Split(s.CustomPreDaysCSV, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// SetCustomPreDays stores the custom day offsets, dropping non-positive
// values and duplicates.
func (s *NotificationSettings) SetCustomPreDays(days []int) {
	seen := make(map[int]struct{})
	parts := make([]string, 0, len(days))
	for _, d := range days {
		if d <= 0 {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		parts = append(parts, strconv.Itoa(d))
	}
	s.CustomPreDaysCSV = strings.Join(parts, ",")
}
