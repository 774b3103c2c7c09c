package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return db, mock
}

func TestCreateWithSetup_CommitsAllWrites(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTaskRepository(db)

	task := &models.Task{Name: "Monthly reconciliation"}
	settings := &models.NotificationSettings{PostNotificationFrequency: models.PostNotifyDaily}
	instance := &models.TaskInstance{Status: models.TaskStatusPending}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tasks`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `notification_settings`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `task_instances`").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("UPDATE `tasks`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateWithSetup(task, settings, instance)
	require.NoError(t, err)
	require.Equal(t, task.ID, settings.TaskID)
	require.Equal(t, task.ID, instance.BaseTaskID)
	require.NotNil(t, task.CurrentInstanceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithSetup_RollsBackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTaskRepository(db)

	task := &models.Task{Name: "Monthly reconciliation"}
	settings := &models.NotificationSettings{PostNotificationFrequency: models.PostNotifyDaily}
	instance := &models.TaskInstance{Status: models.TaskStatusPending}

	// The instance insert fails; the task and settings writes must not
	// survive on their own.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tasks`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `notification_settings`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `task_instances`").
		WillReturnError(gorm.ErrInvalidData)
	mock.ExpectRollback()

	err := repo.CreateWithSetup(task, settings, instance)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithStamp_StaleWrite(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTaskRepository(db)

	stamp := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	task := &models.Task{ID: 42, Name: "Monthly reconciliation"}

	// A concurrent writer advanced updated_at: the guarded UPDATE matches
	// zero rows and the write must be reported stale, not silently lost.
	mock.ExpectExec("UPDATE `tasks`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateWithStamp(task, stamp)
	require.ErrorIs(t, err, ErrStaleWrite)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithStamp_Applies(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTaskRepository(db)

	stamp := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	task := &models.Task{ID: 42, Name: "Monthly reconciliation"}

	mock.ExpectExec("UPDATE `tasks`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateWithStamp(task, stamp)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceUpdateWithStamp_StaleWrite(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTaskInstanceRepository(db)

	stamp := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	instance := &models.TaskInstance{ID: 7, Status: models.TaskStatusSubmitted}

	mock.ExpectExec("UPDATE `task_instances`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateWithStamp(instance, stamp)
	require.ErrorIs(t, err, ErrStaleWrite)
	require.NoError(t, mock.ExpectationsWereMet())
}
