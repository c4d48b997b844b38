package handlers

import (
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/huddle/backend/internal/util"
)

func (suite *HandlersTestSuite) TestSendPush() {
	user := suite.createUser("sender")

	w := suite.performRequest(http.MethodPost, "/api/v1/push/send", map[string]string{
		"topic": "group_abc",
		"title": "Pickup Soccer",
		"body":  "game on",
	}, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	body := suite.parseBody(w)
	assert.Equal(suite.T(), true, body["success"])
	assert.Equal(suite.T(), "group_abc", body["topic"])

	calls := suite.gateway.GetCallsForMethod("SendToTopic")
	require.Len(suite.T(), calls, 1)
	assert.Equal(suite.T(), "group_abc", calls[0].Args[0])
}

func (suite *HandlersTestSuite) TestSendPushTruncatesBody() {
	user := suite.createUser("sender")
	long := strings.Repeat("x", 200)

	w := suite.performRequest(http.MethodPost, "/api/v1/push/send", map[string]string{
		"topic": "group_abc",
		"title": "t",
		"body":  long,
	}, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	calls := suite.gateway.GetCallsForMethod("SendToTopic")
	require.Len(suite.T(), calls, 1)
	sent := calls[0].Args[2].(string)
	assert.Len(suite.T(), []rune(sent), util.PushBodyLimit+3)
	assert.True(suite.T(), strings.HasSuffix(sent, "..."))
}

func (suite *HandlersTestSuite) TestSendPushGatewayFailure() {
	user := suite.createUser("sender")
	suite.gateway.DefaultError = assert.AnError

	w := suite.performRequest(http.MethodPost, "/api/v1/push/send", map[string]string{
		"topic": "group_abc",
		"title": "t",
		"body":  "b",
	}, user.ID)
	assert.Equal(suite.T(), http.StatusBadGateway, w.Code)

	body := suite.parseBody(w)
	assert.Equal(suite.T(), "GATEWAY_ERROR", body["code"])
}

func (suite *HandlersTestSuite) TestSubscribeTopic() {
	user := suite.createUser("subscriber")

	w := suite.performRequest(http.MethodPost, "/api/v1/push/subscribe", map[string]string{
		"token": "device-token-1",
		"topic": "group_abc",
	}, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	calls := suite.gateway.GetCallsForMethod("SubscribeToTopic")
	require.Len(suite.T(), calls, 1)
	assert.Equal(suite.T(), "device-token-1", calls[0].Args[0])
	assert.Equal(suite.T(), "group_abc", calls[0].Args[1])
}

func (suite *HandlersTestSuite) TestUnsubscribeTopicGatewayFailure() {
	user := suite.createUser("subscriber")
	suite.gateway.DefaultError = assert.AnError

	w := suite.performRequest(http.MethodPost, "/api/v1/push/unsubscribe", map[string]string{
		"token": "device-token-1",
		"topic": "group_abc",
	}, user.ID)
	assert.Equal(suite.T(), http.StatusBadGateway, w.Code)
}

func (suite *HandlersTestSuite) TestPushValidation() {
	user := suite.createUser("sender")

	w := suite.performRequest(http.MethodPost, "/api/v1/push/send", map[string]string{
		"topic": "group_abc",
	}, user.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}
