package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/notify"
	"github.com/zfogg/huddle/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

// RegisterDeviceRequest is the payload for registering a push token
type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

// RegisterDevice stores the caller's push token and re-establishes its
// topic subscriptions: the caller's personal topic plus every group they
// organize or belong to. The gateway stays the source of truth for topic
// membership; the stored token only lets us resubscribe after reinstall.
func (h *Handlers) RegisterDevice(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	device := models.DeviceToken{
		UserID:   user.ID,
		Token:    req.Token,
		Platform: req.Platform,
	}
	// A token re-registered by another account moves to the new owner
	err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(&device).Error
	if err != nil {
		logger.ErrorWithFields("Failed to store device token", err)
		util.RespondInternalError(c)
		return
	}

	go h.resubscribeDevice(user.ID, req.Token)

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// resubscribeDevice subscribes a token to the user's personal topic and all
// their group topics. Best-effort; failures are logged.
func (h *Handlers) resubscribeDevice(userID, token string) {
	topics := []string{notify.UserTopic(userID)}

	var groups []models.Group
	err := h.db.
		Joins("LEFT JOIN group_members ON group_members.group_id = groups.id").
		Where("groups.creator_id = ? OR group_members.user_id = ?", userID, userID).
		Group("groups.id").
		Find(&groups).Error
	if err != nil {
		logger.WarnWithFields("Failed to load groups for device subscription", err)
	} else {
		for _, g := range groups {
			topics = append(topics, g.Topic())
		}
	}

	for _, topic := range topics {
		if err := h.gateway.SubscribeToTopic(token, topic); err != nil {
			logger.Log.Warn("Topic subscribe failed",
				zap.String("user_id", userID),
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	}
}

// UnregisterDevice removes a push token and drops its group subscriptions
func (h *Handlers) UnregisterDevice(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	result := h.db.Where("user_id = ? AND token = ?", user.ID, req.Token).
		Delete(&models.DeviceToken{})
	if result.Error != nil {
		util.RespondInternalError(c)
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "device")
		return
	}

	go func(userID, token string) {
		if err := h.gateway.UnsubscribeFromTopic(token, notify.UserTopic(userID)); err != nil {
			logger.WarnWithFields("Topic unsubscribe failed", err)
		}
	}(user.ID, req.Token)

	c.JSON(http.StatusOK, gin.H{"success": true})
}
