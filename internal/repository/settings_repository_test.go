package repository

import (
	"testing"

	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSettingsDB(t *testing.T) NotificationSettingsRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.NotificationSettings{}))

	return NewNotificationSettingsRepository(db)
}

// Disabled flags must round-trip as stored: a column-level default would
// silently win over an explicit false on insert.
func TestUpsert_PersistsDisabledFlags(t *testing.T) {
	repo := setupSettingsDB(t)

	err := repo.Upsert(&models.NotificationSettings{
		TaskID:                    1,
		EnablePreNotifications:    false,
		EnablePostNotifications:   false,
		PostNotificationFrequency: models.PostNotifyDaily,
		SendEmails:                false,
		NotifyMaker:               true,
		NotifyChecker1:            false,
	})
	require.NoError(t, err)

	stored, err := repo.FindByTaskID(1)
	require.NoError(t, err)
	require.False(t, stored.EnablePreNotifications)
	require.False(t, stored.EnablePostNotifications)
	require.False(t, stored.SendEmails)
	require.False(t, stored.NotifyChecker1)
	require.True(t, stored.NotifyMaker)
}

func TestUpsert_ReplacesExistingRow(t *testing.T) {
	repo := setupSettingsDB(t)

	require.NoError(t, repo.Upsert(&models.NotificationSettings{
		TaskID:                    5,
		EnablePreNotifications:    true,
		EnablePostNotifications:   true,
		PostNotificationFrequency: models.PostNotifyDaily,
		SendEmails:                true,
		NotifyMaker:               true,
		NotifyChecker1:            true,
	}))

	// Turning a recipient role off must survive the conflict-update path.
	require.NoError(t, repo.Upsert(&models.NotificationSettings{
		TaskID:                    5,
		EnablePreNotifications:    true,
		EnablePostNotifications:   false,
		PostNotificationFrequency: models.PostNotifyWeekly,
		SendEmails:                true,
		NotifyMaker:               true,
		NotifyChecker1:            false,
	}))

	stored, err := repo.FindByTaskID(5)
	require.NoError(t, err)
	require.Equal(t, models.PostNotifyWeekly, stored.PostNotificationFrequency)
	require.False(t, stored.EnablePostNotifications)
	require.False(t, stored.NotifyChecker1)
}
