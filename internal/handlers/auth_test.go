package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestRegister() {
	w := suite.performRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":        "alice@test.com",
		"username":     "alice",
		"password":     "password123",
		"display_name": "Alice",
	}, "")
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := suite.parseBody(w)
	assert.NotEmpty(suite.T(), body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(suite.T(), "alice", user["username"])
}

func (suite *HandlersTestSuite) TestRegisterDuplicate() {
	payload := map[string]string{
		"email":        "alice@test.com",
		"username":     "alice",
		"password":     "password123",
		"display_name": "Alice",
	}
	w := suite.performRequest(http.MethodPost, "/api/v1/auth/register", payload, "")
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.performRequest(http.MethodPost, "/api/v1/auth/register", payload, "")
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestRegisterValidation() {
	w := suite.performRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "not-an-email",
	}, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLogin() {
	w := suite.performRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":        "alice@test.com",
		"username":     "alice",
		"password":     "password123",
		"display_name": "Alice",
	}, "")
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.performRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@test.com",
		"password": "password123",
	}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// Wrong password and unknown email produce the same response
	w = suite.performRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@test.com",
		"password": "wrong",
	}, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w2 := suite.performRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "nobody@test.com",
		"password": "password123",
	}, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w2.Code)
	assert.Equal(suite.T(), w.Body.String(), w2.Body.String())
}

func (suite *HandlersTestSuite) TestMe() {
	user := suite.createUser("alice")

	w := suite.performRequest(http.MethodGet, "/api/v1/auth/me", nil, user.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	body := suite.parseBody(w)
	me := body["user"].(map[string]interface{})
	assert.Equal(suite.T(), user.ID, me["id"])

	w = suite.performRequest(http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}
