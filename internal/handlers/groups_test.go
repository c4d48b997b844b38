package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/notify"
)

func (suite *HandlersTestSuite) TestCreateGroupAddsOrganizerAsMember() {
	user := suite.createUser("organizer")

	w := suite.performRequest(http.MethodPost, "/api/v1/groups", map[string]interface{}{
		"name":  "Tuesday Tennis",
		"sport": "tennis",
	}, user.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := suite.parseBody(w)
	group := body["group"].(map[string]interface{})
	groupID := group["id"].(string)
	assert.Equal(suite.T(), user.ID, group["creator_id"])

	var memberCount int64
	require.NoError(suite.T(), suite.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, user.ID).
		Count(&memberCount).Error)
	assert.Equal(suite.T(), int64(1), memberCount)
}

func (suite *HandlersTestSuite) TestListMyGroups() {
	organizer := suite.createUser("organizer")
	member := suite.createUser("member")
	outsider := suite.createUser("outsider")
	group := suite.createGroup(organizer, "Pickup Soccer")
	suite.addMember(group, member)

	for _, tc := range []struct {
		userID string
		count  float64
	}{
		{organizer.ID, 1},
		{member.ID, 1},
		{outsider.ID, 0},
	} {
		w := suite.performRequest(http.MethodGet, "/api/v1/groups", nil, tc.userID)
		require.Equal(suite.T(), http.StatusOK, w.Code)
		assert.Equal(suite.T(), tc.count, suite.parseBody(w)["count"])
	}
}

func (suite *HandlersTestSuite) TestRequestToJoin() {
	organizer := suite.createUser("organizer")
	joiner := suite.createUser("joiner")
	group := suite.createGroup(organizer, "Pickup Soccer")

	w := suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests",
		map[string]string{"message": "room for one more?"},
		joiner.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := suite.parseBody(w)
	request := body["request"].(map[string]interface{})
	assert.Equal(suite.T(), string(models.RequestStatusPending), request["status"])

	// A second pending request is a conflict
	w = suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests", nil, joiner.ID)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	// The organizer cannot request to join their own group
	w = suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests", nil, organizer.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestListJoinRequestsOrganizerOnly() {
	organizer := suite.createUser("organizer")
	joiner := suite.createUser("joiner")
	group := suite.createGroup(organizer, "Pickup Soccer")

	w := suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests", nil, joiner.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.performRequest(http.MethodGet,
		"/api/v1/groups/"+group.ID+"/requests", nil, joiner.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.performRequest(http.MethodGet,
		"/api/v1/groups/"+group.ID+"/requests", nil, organizer.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(1), suite.parseBody(w)["count"])
}

func (suite *HandlersTestSuite) TestApproveJoinRequest() {
	organizer := suite.createUser("organizer")
	joiner := suite.createUser("joiner")
	group := suite.createGroup(organizer, "Pickup Soccer")

	// Joiner has a registered device that should follow them into the group
	require.NoError(suite.T(), suite.db.Create(&models.DeviceToken{
		UserID: joiner.ID,
		Token:  "joiner-device",
	}).Error)

	w := suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests", nil, joiner.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	requestID := suite.parseBody(w)["request"].(map[string]interface{})["id"].(string)

	w = suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests/"+requestID+"/approve", nil, organizer.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	// Joiner is now a member
	var memberCount int64
	require.NoError(suite.T(), suite.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).
		Count(&memberCount).Error)
	assert.Equal(suite.T(), int64(1), memberCount)

	// Durable notification for the joiner
	var notification models.Notification
	require.NoError(suite.T(), suite.db.First(&notification, "user_id = ?", joiner.ID).Error)
	assert.Equal(suite.T(), models.NotificationTypeRequestApproved, notification.Type)

	// Also delivered live over the socket
	live := suite.live.notificationsFor(joiner.ID)
	require.Len(suite.T(), live, 1)
	assert.Equal(suite.T(), notification.ID, live[0].ID)

	// Their device gets subscribed to the group topic, and a decision push
	// goes to their personal topic
	assert.Eventually(suite.T(), func() bool {
		subscribed := false
		for _, call := range suite.gateway.GetCallsForMethod("SubscribeToTopic") {
			if call.Args[0] == "joiner-device" && call.Args[1] == group.Topic() {
				subscribed = true
			}
		}
		pushed := false
		for _, call := range suite.gateway.GetCallsForMethod("SendToTopic") {
			if call.Args[0] == notify.UserTopic(joiner.ID) {
				pushed = true
			}
		}
		return subscribed && pushed
	}, eventuallyTimeout, eventuallyTick)

	// Deciding the same request again is a conflict
	w = suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests/"+requestID+"/approve", nil, organizer.ID)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestDeclineJoinRequest() {
	organizer := suite.createUser("organizer")
	joiner := suite.createUser("joiner")
	group := suite.createGroup(organizer, "Pickup Soccer")

	w := suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests", nil, joiner.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	requestID := suite.parseBody(w)["request"].(map[string]interface{})["id"].(string)

	// Only the organizer decides
	w = suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests/"+requestID+"/decline", nil, joiner.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/requests/"+requestID+"/decline", nil, organizer.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	// No membership was created
	var memberCount int64
	require.NoError(suite.T(), suite.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).
		Count(&memberCount).Error)
	assert.Equal(suite.T(), int64(0), memberCount)

	var notification models.Notification
	require.NoError(suite.T(), suite.db.First(&notification, "user_id = ?", joiner.ID).Error)
	assert.Equal(suite.T(), models.NotificationTypeRequestDeclined, notification.Type)
}
