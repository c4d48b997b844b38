package handlers

import (
	"fmt"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/huddle/backend/internal/models"
)

func (suite *HandlersTestSuite) TestCreateMessage() {
	organizer := suite.createUser("organizer")
	member := suite.createUser("member")
	group := suite.createGroup(organizer, "Pickup Soccer")
	suite.addMember(group, member)

	w := suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/messages",
		map[string]string{"content": "see you at 6"},
		member.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := suite.parseBody(w)
	msg := body["message"].(map[string]interface{})
	assert.Equal(suite.T(), "see you at 6", msg["content"])
	assert.Equal(suite.T(), string(models.MessageStatusVisible), msg["status"])

	// The push worker delivers to the group topic asynchronously
	assert.Eventually(suite.T(), func() bool {
		calls := suite.gateway.GetCallsForMethod("SendToTopic")
		return len(calls) > 0 && calls[len(calls)-1].Args[0] == group.Topic()
	}, eventuallyTimeout, eventuallyTick)
}

func (suite *HandlersTestSuite) TestCreateMessageNonMember() {
	organizer := suite.createUser("organizer")
	outsider := suite.createUser("outsider")
	group := suite.createGroup(organizer, "Pickup Soccer")

	w := suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/messages",
		map[string]string{"content": "let me in"},
		outsider.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestListMessagesFiltersHidden() {
	organizer := suite.createUser("organizer")
	group := suite.createGroup(organizer, "Pickup Soccer")

	visible := &models.Message{GroupID: group.ID, AuthorID: organizer.ID, AuthorName: "o", Content: "visible", Status: models.MessageStatusVisible}
	hidden := &models.Message{GroupID: group.ID, AuthorID: organizer.ID, AuthorName: "o", Content: "hidden", Status: models.MessageStatusHidden}
	reported := &models.Message{GroupID: group.ID, AuthorID: organizer.ID, AuthorName: "o", Content: "reported", Status: models.MessageStatusReported}
	for _, m := range []*models.Message{visible, hidden, reported} {
		require.NoError(suite.T(), suite.db.Create(m).Error)
	}

	w := suite.performRequest(http.MethodGet, "/api/v1/groups/"+group.ID+"/messages", nil, organizer.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	body := suite.parseBody(w)
	assert.Equal(suite.T(), float64(2), body["count"])
	for _, raw := range body["messages"].([]interface{}) {
		msg := raw.(map[string]interface{})
		assert.NotEqual(suite.T(), string(models.MessageStatusHidden), msg["status"])
	}
}

func (suite *HandlersTestSuite) TestModerateMessage() {
	organizer := suite.createUser("organizer")
	member := suite.createUser("member")
	group := suite.createGroup(organizer, "Pickup Soccer")
	suite.addMember(group, member)

	msg := &models.Message{GroupID: group.ID, AuthorID: member.ID, AuthorName: "m", Content: "spicy", Status: models.MessageStatusVisible}
	require.NoError(suite.T(), suite.db.Create(msg).Error)

	// Member may not moderate
	w := suite.performRequest(http.MethodPatch,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID,
		map[string]string{"action": "hide"},
		member.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	// Organizer hides, then restores
	w = suite.performRequest(http.MethodPatch,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID,
		map[string]string{"action": "hide"},
		organizer.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := suite.parseBody(w)
	assert.Equal(suite.T(), string(models.MessageStatusHidden), body["message"].(map[string]interface{})["status"])

	w = suite.performRequest(http.MethodPatch,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID,
		map[string]string{"action": "show"},
		organizer.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	// Unknown actions fail binding
	w = suite.performRequest(http.MethodPatch,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID,
		map[string]string{"action": "vaporize"},
		organizer.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestReportMessage() {
	organizer := suite.createUser("organizer")
	member := suite.createUser("member")
	group := suite.createGroup(organizer, "Pickup Soccer")
	suite.addMember(group, member)

	msg := &models.Message{GroupID: group.ID, AuthorID: organizer.ID, AuthorName: "o", Content: "contested", Status: models.MessageStatusVisible}
	require.NoError(suite.T(), suite.db.Create(msg).Error)

	w := suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID+"/reports",
		map[string]string{"reason": "spam"},
		member.ID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	// Same reporter again is a conflict with the dedicated code
	w = suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID+"/reports",
		map[string]string{"reason": "offensive"},
		member.ID)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	body := suite.parseBody(w)
	assert.Equal(suite.T(), "DUPLICATE_REPORT", body["code"])
}

func (suite *HandlersTestSuite) TestReportMessageAutoFlip() {
	organizer := suite.createUser("organizer")
	group := suite.createGroup(organizer, "Pickup Soccer")

	msg := &models.Message{GroupID: group.ID, AuthorID: organizer.ID, AuthorName: "o", Content: "spam", Status: models.MessageStatusVisible}
	require.NoError(suite.T(), suite.db.Create(msg).Error)

	for i := 0; i < 3; i++ {
		reporter := suite.createUser(fmt.Sprintf("reporter%d", i))
		w := suite.performRequest(http.MethodPost,
			"/api/v1/groups/"+group.ID+"/messages/"+msg.ID+"/reports",
			map[string]string{"reason": "spam"},
			reporter.ID)
		require.Equal(suite.T(), http.StatusCreated, w.Code)
	}

	var current models.Message
	require.NoError(suite.T(), suite.db.First(&current, "id = ?", msg.ID).Error)
	assert.Equal(suite.T(), models.MessageStatusReported, current.Status)
}

func (suite *HandlersTestSuite) TestReportMessageInvalidReason() {
	organizer := suite.createUser("organizer")
	group := suite.createGroup(organizer, "Pickup Soccer")

	msg := &models.Message{GroupID: group.ID, AuthorID: organizer.ID, AuthorName: "o", Content: "x", Status: models.MessageStatusVisible}
	require.NoError(suite.T(), suite.db.Create(msg).Error)

	w := suite.performRequest(http.MethodPost,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID+"/reports",
		map[string]string{"reason": "nonsense"},
		organizer.ID)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestDeleteMessage() {
	organizer := suite.createUser("organizer")
	author := suite.createUser("author")
	other := suite.createUser("other")
	group := suite.createGroup(organizer, "Pickup Soccer")
	suite.addMember(group, author)
	suite.addMember(group, other)

	msg := &models.Message{GroupID: group.ID, AuthorID: author.ID, AuthorName: "a", Content: "bye", Status: models.MessageStatusVisible}
	require.NoError(suite.T(), suite.db.Create(msg).Error)

	w := suite.performRequest(http.MethodDelete,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID, nil, other.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.performRequest(http.MethodDelete,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID, nil, author.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.performRequest(http.MethodDelete,
		"/api/v1/groups/"+group.ID+"/messages/"+msg.ID, nil, author.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestMessageEndpointsUnknownGroup() {
	user := suite.createUser("alice")

	w := suite.performRequest(http.MethodGet, "/api/v1/groups/nonexistent/messages", nil, user.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.performRequest(http.MethodPost, "/api/v1/groups/nonexistent/messages",
		map[string]string{"content": "hello"}, user.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}
