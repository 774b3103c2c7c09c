package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/auditflow/task-audit-api/internal/database"
	"github.com/auditflow/task-audit-api/internal/models"
	"github.com/auditflow/task-audit-api/internal/repository"
	"github.com/auditflow/task-audit-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InstanceHandlerTestSuite defines the test suite for InstanceHandler
type InstanceHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	handler  *InstanceHandler
	maker    *models.User
	checker1 *models.User
	checker2 *models.User
	task     *models.Task
	instance *models.TaskInstance
}

// SetupTest runs before each test
func (suite *InstanceHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskInstance{},
		&models.Approval{},
		&models.Comment{},
		&models.Attachment{},
		&models.NotificationSettings{},
	)
	suite.Require().NoError(err)

	// Set the test DB as the default database
	database.SetDB(suite.db)

	taskRepo := repository.NewTaskRepository(suite.db)
	instanceRepo := repository.NewTaskInstanceRepository(suite.db)
	suite.handler = NewInstanceHandler(services.NewInstanceService(taskRepo, instanceRepo))

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Seed a task with one current instance
	suite.maker = suite.createTestUser("maker", models.RoleMaker)
	suite.checker1 = suite.createTestUser("checker1", models.RoleChecker1)
	suite.checker2 = suite.createTestUser("checker2", models.RoleChecker2)

	due := time.Now().AddDate(0, 0, 7)
	suite.task = &models.Task{
		Name:         "Quarterly control check",
		Status:       models.TaskStatusPending,
		Priority:     models.PriorityMedium,
		DueDate:      &due,
		Frequency:    models.FrequencyQuarterly,
		IsRecurring:  true,
		AssignedToID: suite.maker.ID,
		Checker1ID:   suite.checker1.ID,
		Checker2ID:   suite.checker2.ID,
	}
	suite.Require().NoError(suite.db.Create(suite.task).Error)

	suite.instance = &models.TaskInstance{
		BaseTaskID:        suite.task.ID,
		Status:            models.TaskStatusPending,
		DueDate:           due,
		AssignedToID:      suite.maker.ID,
		Checker1ID:        suite.checker1.ID,
		Checker2ID:        suite.checker2.ID,
		InstanceReference: due.Format("Jan 2006"),
	}
	suite.Require().NoError(suite.db.Create(suite.instance).Error)
	suite.Require().NoError(suite.db.Model(suite.task).
		Update("current_instance_id", suite.instance.ID).Error)
}

// TearDownTest runs after each test
func (suite *InstanceHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *InstanceHandlerTestSuite) createTestUser(username string, role models.UserRole) *models.User {
	user := &models.User{
		Username:          username,
		DisplayName:       username,
		Email:             username + "@example.com",
		PasswordHash:      "hashedpassword",
		Role:              role,
		PasswordExpiresAt: time.Now().AddDate(0, 0, 90),
	}
	user.SetRoles(nil)
	suite.db.Create(user)
	return user
}

// Helper function to create authenticated context with the instance ID param
func (suite *InstanceHandlerTestSuite) createInstanceContext(method, action string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	url := "/api/instances/" + strconv.FormatUint(suite.instance.ID, 10) + "/" + action
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "instanceId", Value: strconv.FormatUint(suite.instance.ID, 10)}}
	c.Set("user_id", userID)

	return c, w
}

func (suite *InstanceHandlerTestSuite) decisionBody(decision, comment string) []byte {
	body, _ := json.Marshal(map[string]string{
		"decision": decision,
		"comment":  comment,
	})
	return body
}

func (suite *InstanceHandlerTestSuite) instanceStatus() models.TaskStatus {
	var stored models.TaskInstance
	suite.Require().NoError(suite.db.First(&stored, suite.instance.ID).Error)
	return stored.Status
}

func (suite *InstanceHandlerTestSuite) taskStatus() models.TaskStatus {
	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, suite.task.ID).Error)
	return stored.Status
}

// TestSubmit_Success tests the maker submitting the instance
func (suite *InstanceHandlerTestSuite) TestSubmit_Success() {
	c, w := suite.createInstanceContext("POST", "submit", nil, suite.maker.ID)

	suite.handler.Submit(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.TaskStatusSubmitted, suite.instanceStatus())
	// Template mirrors its current instance
	assert.Equal(suite.T(), models.TaskStatusSubmitted, suite.taskStatus())
}

// TestSubmit_NotMaker tests submission by a checker
func (suite *InstanceHandlerTestSuite) TestSubmit_NotMaker() {
	c, w := suite.createInstanceContext("POST", "submit", nil, suite.checker1.ID)

	suite.handler.Submit(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	assert.Equal(suite.T(), models.TaskStatusPending, suite.instanceStatus())
}

// TestSubmit_AlreadyApproved tests submitting from a terminal state
func (suite *InstanceHandlerTestSuite) TestSubmit_AlreadyApproved() {
	suite.db.Model(suite.instance).Update("status", models.TaskStatusApproved)

	c, w := suite.createInstanceContext("POST", "submit", nil, suite.maker.ID)

	suite.handler.Submit(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "ILLEGAL_TRANSITION", response["code"])
}

// TestFullApprovalFlow tests submit -> checker1 approve -> checker2 approve
func (suite *InstanceHandlerTestSuite) TestFullApprovalFlow() {
	c, w := suite.createInstanceContext("POST", "submit", nil, suite.maker.ID)
	suite.handler.Submit(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	c, w = suite.createInstanceContext("POST", "checker1-decision",
		suite.decisionBody("approved", "Looks complete"), suite.checker1.ID)
	suite.handler.Checker1Decide(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.TaskStatusChecker1Approved, suite.instanceStatus())

	c, w = suite.createInstanceContext("POST", "checker2-decision",
		suite.decisionBody("approved", ""), suite.checker2.ID)
	suite.handler.Checker2Decide(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.TaskStatusApproved, suite.instanceStatus())
	assert.Equal(suite.T(), models.TaskStatusApproved, suite.taskStatus())

	// Final approval stamps completion and leaves an audit trail
	var stored models.TaskInstance
	suite.Require().NoError(suite.db.Preload("Approvals").First(&stored, suite.instance.ID).Error)
	assert.NotNil(suite.T(), stored.CompletedAt)
	suite.Require().Len(stored.Approvals, 2)
	assert.Equal(suite.T(), models.RoleChecker1, stored.Approvals[0].UserRole)
	assert.Equal(suite.T(), models.RoleChecker2, stored.Approvals[1].UserRole)
}

// TestChecker2BeforeChecker1 tests that final approval cannot overtake review
func (suite *InstanceHandlerTestSuite) TestChecker2BeforeChecker1() {
	c, w := suite.createInstanceContext("POST", "submit", nil, suite.maker.ID)
	suite.handler.Submit(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	c, w = suite.createInstanceContext("POST", "checker2-decision",
		suite.decisionBody("approved", ""), suite.checker2.ID)
	suite.handler.Checker2Decide(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	// The decision is refused outright, never queued
	assert.Equal(suite.T(), models.TaskStatusSubmitted, suite.instanceStatus())

	var count int64
	suite.db.Model(&models.Approval{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

// TestChecker1Decide_WrongActor tests checker identity enforcement
func (suite *InstanceHandlerTestSuite) TestChecker1Decide_WrongActor() {
	suite.db.Model(suite.instance).Update("status", models.TaskStatusSubmitted)

	c, w := suite.createInstanceContext("POST", "checker1-decision",
		suite.decisionBody("approved", ""), suite.checker2.ID)
	suite.handler.Checker1Decide(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestChecker1Decide_InvalidDecision tests decision validation
func (suite *InstanceHandlerTestSuite) TestChecker1Decide_InvalidDecision() {
	suite.db.Model(suite.instance).Update("status", models.TaskStatusSubmitted)

	c, w := suite.createInstanceContext("POST", "checker1-decision",
		suite.decisionBody("maybe", ""), suite.checker1.ID)
	suite.handler.Checker1Decide(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestRejectAndRework tests rejection at checker1 and the maker rework path
func (suite *InstanceHandlerTestSuite) TestRejectAndRework() {
	c, w := suite.createInstanceContext("POST", "submit", nil, suite.maker.ID)
	suite.handler.Submit(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	c, w = suite.createInstanceContext("POST", "checker1-decision",
		suite.decisionBody("rejected", "Missing evidence"), suite.checker1.ID)
	suite.handler.Checker1Decide(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.TaskStatusRejected, suite.instanceStatus())

	// Maker picks the rejected work back up
	c, w = suite.createInstanceContext("POST", "rework", nil, suite.maker.ID)
	suite.handler.Rework(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.TaskStatusInProgress, suite.instanceStatus())

	var stored models.TaskInstance
	suite.Require().NoError(suite.db.First(&stored, suite.instance.ID).Error)
	assert.Nil(suite.T(), stored.SubmittedAt)

	// And can resubmit after rework
	c, w = suite.createInstanceContext("POST", "submit", nil, suite.maker.ID)
	suite.handler.Submit(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.TaskStatusSubmitted, suite.instanceStatus())
}

// TestRejectAtChecker2 tests rejection after first-level approval
func (suite *InstanceHandlerTestSuite) TestRejectAtChecker2() {
	suite.db.Model(suite.instance).Update("status", models.TaskStatusChecker1Approved)

	c, w := suite.createInstanceContext("POST", "checker2-decision",
		suite.decisionBody("rejected", "Numbers do not reconcile"), suite.checker2.ID)
	suite.handler.Checker2Decide(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), models.TaskStatusRejected, suite.instanceStatus())

	var stored models.TaskInstance
	suite.Require().NoError(suite.db.First(&stored, suite.instance.ID).Error)
	assert.Nil(suite.T(), stored.CompletedAt)
}

// TestGetInstance_Success tests instance retrieval with the audit trail
func (suite *InstanceHandlerTestSuite) TestGetInstance_Success() {
	c, w := suite.createInstanceContext("GET", "", nil, suite.maker.ID)

	suite.handler.GetInstance(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), float64(suite.instance.ID), response["id"])
	assert.Equal(suite.T(), suite.instance.InstanceReference, response["instance_reference"])
}

// TestGetInstance_NotFound tests retrieval of a missing instance
func (suite *InstanceHandlerTestSuite) TestGetInstance_NotFound() {
	c, w := suite.createInstanceContext("GET", "", nil, suite.maker.ID)
	c.Params = gin.Params{{Key: "instanceId", Value: "9999"}}

	suite.handler.GetInstance(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestAddComment tests commenting on an instance
func (suite *InstanceHandlerTestSuite) TestAddComment() {
	body, _ := json.Marshal(map[string]string{"body": "Please attach the export"})
	c, w := suite.createInstanceContext("POST", "comments", body, suite.checker1.ID)

	suite.handler.AddComment(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var count int64
	suite.db.Model(&models.Comment{}).Where("task_instance_id = ?", suite.instance.ID).Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

// TestAddComment_EmptyBody tests comment validation
func (suite *InstanceHandlerTestSuite) TestAddComment_EmptyBody() {
	body, _ := json.Marshal(map[string]string{"body": ""})
	c, w := suite.createInstanceContext("POST", "comments", body, suite.checker1.ID)

	suite.handler.AddComment(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestAddAttachment tests recording attachment metadata
func (suite *InstanceHandlerTestSuite) TestAddAttachment() {
	body, _ := json.Marshal(map[string]interface{}{
		"file_name":    "reconciliation.xlsx",
		"content_type": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"size_bytes":   48213,
		"storage_key":  "instances/1/reconciliation.xlsx",
	})
	c, w := suite.createInstanceContext("POST", "attachments", body, suite.maker.ID)

	suite.handler.AddAttachment(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var stored models.Attachment
	suite.Require().NoError(suite.db.Where("task_instance_id = ?", suite.instance.ID).First(&stored).Error)
	assert.Equal(suite.T(), "reconciliation.xlsx", stored.FileName)
	assert.Equal(suite.T(), suite.maker.ID, stored.UserID)
}

// TestInstanceHandlerTestSuite runs the test suite
func TestInstanceHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(InstanceHandlerTestSuite))
}
