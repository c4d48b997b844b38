package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/util"
	"gorm.io/gorm"
)

// GroupReportRequest is the payload for reporting a group
type GroupReportRequest struct {
	GroupID string `json:"groupId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
	Details string `json:"details"`
}

// CreateGroupReport files an abuse report against a group. The group's
// organizer receives a durable notification and a push alert.
func (h *Handlers) CreateGroupReport(c *gin.Context) {
	var req GroupReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !models.ValidReportReason(models.ReportReason(req.Reason)) {
		util.RespondValidationError(c, "reason", "invalid report reason")
		return
	}

	var group models.Group
	err := h.db.Where("id = ?", req.GroupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "group")
		return
	} else if err != nil {
		util.RespondInternalError(c)
		return
	}

	var reporter models.User
	err = h.db.Where("id = ?", req.UserID).First(&reporter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "user")
		return
	} else if err != nil {
		util.RespondInternalError(c)
		return
	}

	report := models.GroupReport{
		GroupID:      group.ID,
		ReporterID:   reporter.ID,
		ReporterName: reporter.DisplayName,
		Reason:       models.ReportReason(req.Reason),
		Details:      req.Details,
	}
	if err := h.db.Create(&report).Error; err != nil {
		logger.ErrorWithFields("Failed to create group report", err)
		util.RespondInternalError(c)
		return
	}

	if err := h.dispatcher.NotifyGroupReported(&group, &report); err != nil {
		// The report itself is recorded; the organizer alert is best-effort
		logger.WarnWithFields("Failed to notify organizer of group report", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"reportId": report.ID,
	})
}
