package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/huddle/backend/internal/models"
)

func (suite *HandlersTestSuite) TestAdminStatsRequiresAuth() {
	w := suite.performRequest(http.MethodGet, "/api/v1/admin/stats", nil, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestAdminStatsForbiddenForRegularUser() {
	user := suite.createUser("regular")

	w := suite.performRequest(http.MethodGet, "/api/v1/admin/stats", nil, user.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	body := suite.parseBody(w)
	assert.Equal(suite.T(), "admin_access_required", body["error"])
}

func (suite *HandlersTestSuite) TestAdminStats() {
	admin := suite.createUser("admin")
	require.NoError(suite.T(), suite.db.Model(&models.User{}).
		Where("id = ?", admin.ID).
		Update("is_admin", true).Error)

	organizer := suite.createUser("organizer")
	member := suite.createUser("member")
	group := suite.createGroup(organizer, "Pickup Soccer")

	require.NoError(suite.T(), suite.db.Create(&models.MembershipRequest{
		GroupID: group.ID,
		UserID:  member.ID,
	}).Error)
	msg := &models.Message{GroupID: group.ID, AuthorID: organizer.ID, AuthorName: "o", Content: "hi", Status: models.MessageStatusVisible}
	require.NoError(suite.T(), suite.db.Create(msg).Error)
	require.NoError(suite.T(), suite.db.Create(&models.MessageReport{
		MessageID:  msg.ID,
		ReporterID: member.ID,
		Reason:     models.ReportReasonSpam,
	}).Error)
	require.NoError(suite.T(), suite.db.Create(&models.GroupReport{
		GroupID:    group.ID,
		ReporterID: member.ID,
		Reason:     models.ReportReasonOther,
	}).Error)

	w := suite.performRequest(http.MethodGet, "/api/v1/admin/stats", nil, admin.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	body := suite.parseBody(w)
	assert.Equal(suite.T(), true, body["isAdmin"])

	stats := body["stats"].(map[string]interface{})
	assert.Equal(suite.T(), float64(3), stats["totalUsers"])
	assert.Equal(suite.T(), float64(1), stats["totalGroups"])
	assert.Equal(suite.T(), float64(1), stats["pendingRequests"])
	assert.Equal(suite.T(), float64(1), stats["totalPosts"])
	// Message reports and group reports count together
	assert.Equal(suite.T(), float64(2), stats["totalReports"])
}

func (suite *HandlersTestSuite) TestAdminStatsEmailAllowList() {
	user := suite.createUser("operator")
	suite.T().Setenv("ADMIN_EMAILS", "other@test.com, OPERATOR@test.com")

	w := suite.performRequest(http.MethodGet, "/api/v1/admin/stats", nil, user.ID)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}
