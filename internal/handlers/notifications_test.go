package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/huddle/backend/internal/models"
)

func (suite *HandlersTestSuite) createNotification(userID string) *models.Notification {
	n := &models.Notification{
		UserID: userID,
		Type:   models.NotificationTypeNewMessage,
		Title:  "Pickup Soccer",
		Body:   "alice: see you at 6",
	}
	require.NoError(suite.T(), suite.db.Create(n).Error)
	return n
}

func (suite *HandlersTestSuite) TestListNotifications() {
	user := suite.createUser("alice")
	other := suite.createUser("bob")
	suite.createNotification(user.ID)
	suite.createNotification(user.ID)
	suite.createNotification(other.ID)

	w := suite.performRequest(http.MethodGet, "/api/v1/notifications", nil, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(2), suite.parseBody(w)["count"])
}

func (suite *HandlersTestSuite) TestUnreadCountAndMarkRead() {
	user := suite.createUser("alice")
	n1 := suite.createNotification(user.ID)
	suite.createNotification(user.ID)

	w := suite.performRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(2), suite.parseBody(w)["unread"])

	w = suite.performRequest(http.MethodPost, "/api/v1/notifications/"+n1.ID+"/read", nil, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.performRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil, user.ID)
	assert.Equal(suite.T(), float64(1), suite.parseBody(w)["unread"])

	w = suite.performRequest(http.MethodPost, "/api/v1/notifications/read-all", nil, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.performRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil, user.ID)
	assert.Equal(suite.T(), float64(0), suite.parseBody(w)["unread"])
}

func (suite *HandlersTestSuite) TestMarkReadOnlyOwn() {
	alice := suite.createUser("alice")
	bob := suite.createUser("bob")
	n := suite.createNotification(alice.ID)

	// Another user's notification looks like it doesn't exist
	w := suite.performRequest(http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", nil, bob.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestRegisterDevice() {
	user := suite.createUser("alice")
	organizer := suite.createUser("organizer")
	group := suite.createGroup(organizer, "Pickup Soccer")
	suite.addMember(group, user)

	w := suite.performRequest(http.MethodPost, "/api/v1/devices", map[string]string{
		"token":    "device-token-1",
		"platform": "ios",
	}, user.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.DeviceToken{}).
		Where("token = ?", "device-token-1").Count(&count).Error)
	assert.Equal(suite.T(), int64(1), count)

	// Registration resubscribes the device to the user's topics
	assert.Eventually(suite.T(), func() bool {
		calls := suite.gateway.GetCallsForMethod("SubscribeToTopic")
		personal, groupTopic := false, false
		for _, call := range calls {
			switch call.Args[1] {
			case "user_" + user.ID:
				personal = true
			case group.Topic():
				groupTopic = true
			}
		}
		return personal && groupTopic
	}, eventuallyTimeout, eventuallyTick)

	// Re-registering the same token is an upsert, not a duplicate
	w = suite.performRequest(http.MethodPost, "/api/v1/devices", map[string]string{
		"token":    "device-token-1",
		"platform": "android",
	}, user.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	require.NoError(suite.T(), suite.db.Model(&models.DeviceToken{}).
		Where("token = ?", "device-token-1").Count(&count).Error)
	assert.Equal(suite.T(), int64(1), count)
}

func (suite *HandlersTestSuite) TestUnregisterDevice() {
	user := suite.createUser("alice")
	require.NoError(suite.T(), suite.db.Create(&models.DeviceToken{
		UserID: user.ID,
		Token:  "device-token-1",
	}).Error)

	w := suite.performRequest(http.MethodDelete, "/api/v1/devices", map[string]string{
		"token": "device-token-1",
	}, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.performRequest(http.MethodDelete, "/api/v1/devices", map[string]string{
		"token": "device-token-1",
	}, user.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}
