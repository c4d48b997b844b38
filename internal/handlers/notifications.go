package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/util"
)

// ListNotifications returns the caller's notifications, newest first
func (h *Handlers) ListNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var notifications []models.Notification
	err := h.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		logger.ErrorWithFields("Failed to list notifications", err)
		util.RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
		"limit":         limit,
		"offset":        offset,
	})
}

// GetUnreadCount returns the caller's unread notification count
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var count int64
	err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		util.RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkNotificationRead marks one of the caller's notifications as read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	notificationID := c.Param("id")

	result := h.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		util.RespondInternalError(c)
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllNotificationsRead marks all of the caller's notifications as read
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		util.RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": result.RowsAffected})
}
