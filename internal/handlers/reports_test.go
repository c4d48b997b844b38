package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/notify"
)

func (suite *HandlersTestSuite) TestCreateGroupReport() {
	organizer := suite.createUser("organizer")
	reporter := suite.createUser("reporter")
	group := suite.createGroup(organizer, "Pickup Soccer")

	w := suite.performRequest(http.MethodPost, "/api/v1/reports", map[string]string{
		"groupId": group.ID,
		"userId":  reporter.ID,
		"reason":  "spam",
		"details": "constant advertising",
	}, "")
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := suite.parseBody(w)
	assert.Equal(suite.T(), true, body["success"])
	assert.NotEmpty(suite.T(), body["reportId"])

	// The organizer gets a durable notification
	var notification models.Notification
	require.NoError(suite.T(), suite.db.First(&notification, "user_id = ?", organizer.ID).Error)
	assert.Equal(suite.T(), models.NotificationTypeGroupReported, notification.Type)
	assert.Equal(suite.T(), group.ID, notification.Data["group_id"])

	// Delivered over the socket if they are online
	live := suite.live.notificationsFor(organizer.ID)
	require.Len(suite.T(), live, 1)
	assert.Equal(suite.T(), notification.ID, live[0].ID)

	// And a push on their personal topic
	assert.Eventually(suite.T(), func() bool {
		for _, call := range suite.gateway.GetCallsForMethod("SendToTopic") {
			if call.Args[0] == notify.UserTopic(organizer.ID) {
				return true
			}
		}
		return false
	}, eventuallyTimeout, eventuallyTick)
}

func (suite *HandlersTestSuite) TestCreateGroupReportValidation() {
	organizer := suite.createUser("organizer")
	reporter := suite.createUser("reporter")
	group := suite.createGroup(organizer, "Pickup Soccer")

	// Missing required fields
	w := suite.performRequest(http.MethodPost, "/api/v1/reports", map[string]string{
		"groupId": group.ID,
	}, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// Unknown reason
	w = suite.performRequest(http.MethodPost, "/api/v1/reports", map[string]string{
		"groupId": group.ID,
		"userId":  reporter.ID,
		"reason":  "nonsense",
	}, "")
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	// Unknown group
	w = suite.performRequest(http.MethodPost, "/api/v1/reports", map[string]string{
		"groupId": "nonexistent",
		"userId":  reporter.ID,
		"reason":  "spam",
	}, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// Unknown reporter
	w = suite.performRequest(http.MethodPost, "/api/v1/reports", map[string]string{
		"groupId": group.ID,
		"userId":  "nonexistent",
		"reason":  "spam",
	}, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestCreateGroupReportGatewayDown() {
	organizer := suite.createUser("organizer")
	reporter := suite.createUser("reporter")
	group := suite.createGroup(organizer, "Pickup Soccer")

	suite.gateway.DefaultError = assert.AnError

	// Push failure must not fail the report
	w := suite.performRequest(http.MethodPost, "/api/v1/reports", map[string]string{
		"groupId": group.ID,
		"userId":  reporter.ID,
		"reason":  "offensive",
	}, "")
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.GroupReport{}).Count(&count).Error)
	assert.Equal(suite.T(), int64(1), count)
}
