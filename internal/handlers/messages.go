package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/zfogg/huddle/backend/internal/errors"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/metrics"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/util"
)

// respondServiceError maps a message-service error onto the wire
func respondServiceError(c *gin.Context, err error) {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	logger.ErrorWithFields("Message service error", err)
	util.RespondInternalError(c)
}

// CreateMessageRequest is the payload for posting a chat message
type CreateMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateMessage posts a message to a group's chat
func (h *Handlers) CreateMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	groupID := c.Param("id")

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	msg, err := h.msgService.Create(groupID, user, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	metrics.Get().MessagesPostedTotal.WithLabelValues(groupID).Inc()

	// Push to the group topic; failures never affect the response
	var group models.Group
	if err := h.db.Where("id = ?", groupID).First(&group).Error; err == nil {
		h.dispatcher.NotifyNewMessage(&group, msg)
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ListMessages returns the group's chat newest first. Hidden messages are
// excluded; reported messages are included.
func (h *Handlers) ListMessages(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	groupID := c.Param("id")

	msgs, err := h.msgService.List(groupID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// ModerateMessageRequest selects the moderation action
type ModerateMessageRequest struct {
	Action string `json:"action" binding:"required,oneof=hide show"`
}

// ModerateMessage hides or shows a message (organizer only)
func (h *Handlers) ModerateMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	groupID := c.Param("id")
	messageID := c.Param("messageId")

	var req ModerateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	msg, err := h.msgService.Moderate(groupID, messageID, user, req.Action == "hide")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// ReportMessageRequest is the payload for reporting a message
type ReportMessageRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

// ReportMessage files a report against a message. Repeat reports by the
// same user are rejected with DUPLICATE_REPORT.
func (h *Handlers) ReportMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	groupID := c.Param("id")
	messageID := c.Param("messageId")

	var req ReportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.msgService.Report(groupID, messageID, user, models.ReportReason(req.Reason), req.Description)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	metrics.Get().ReportsFiledTotal.WithLabelValues(req.Reason).Inc()

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// DeleteMessage permanently removes a message (author or organizer)
func (h *Handlers) DeleteMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	groupID := c.Param("id")
	messageID := c.Param("messageId")

	if err := h.msgService.Delete(groupID, messageID, user); err != nil {
		respondServiceError(c, err)
		return
	}

	metrics.Get().MessagesDeletedTotal.WithLabelValues(groupID).Inc()

	c.JSON(http.StatusOK, gin.H{"success": true})
}
