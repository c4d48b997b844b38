package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateGroupRequest is the payload for creating a group
type CreateGroupRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=100"`
	Description string     `json:"description"`
	Sport       string     `json:"sport"`
	Location    string     `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	MaxMembers  int        `json:"max_members"`
}

// CreateGroup creates a new group with the caller as organizer
func (h *Handlers) CreateGroup(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	group := models.Group{
		CreatorID:   user.ID,
		Name:        req.Name,
		Description: req.Description,
		Sport:       req.Sport,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		MaxMembers:  req.MaxMembers,
	}

	if err := h.db.Create(&group).Error; err != nil {
		logger.ErrorWithFields("Failed to create group", err)
		util.RespondInternalError(c, "failed to create group")
		return
	}

	// The organizer is also a member
	member := models.GroupMember{GroupID: group.ID, UserID: user.ID}
	if err := h.db.Create(&member).Error; err != nil {
		logger.WarnWithFields("Failed to add organizer as member", err)
	}

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// GetGroup returns a single group with its members
func (h *Handlers) GetGroup(c *gin.Context) {
	groupID := c.Param("id")

	var group models.Group
	err := h.db.Preload("Members.User").Preload("Creator").
		Where("id = ?", groupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "group")
		return
	} else if err != nil {
		logger.ErrorWithFields("Failed to load group", err)
		util.RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// ListMyGroups returns groups the caller organizes or belongs to
func (h *Handlers) ListMyGroups(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var groups []models.Group
	err := h.db.
		Joins("LEFT JOIN group_members ON group_members.group_id = groups.id").
		Where("groups.creator_id = ? OR group_members.user_id = ?", userID, userID).
		Group("groups.id").
		Order("groups.created_at DESC").
		Find(&groups).Error
	if err != nil {
		logger.ErrorWithFields("Failed to list groups", err)
		util.RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups, "count": len(groups)})
}

// JoinRequestBody is the optional payload for a join request
type JoinRequestBody struct {
	Message string `json:"message"`
}

// RequestToJoin files a membership request for a group
func (h *Handlers) RequestToJoin(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	groupID := c.Param("id")

	var group models.Group
	err := h.db.Where("id = ?", groupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "group")
		return
	} else if err != nil {
		util.RespondInternalError(c)
		return
	}

	if group.CreatorID == user.ID {
		util.RespondBadRequest(c, "you are the organizer of this group")
		return
	}

	var memberCount int64
	h.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, user.ID).
		Count(&memberCount)
	if memberCount > 0 {
		util.RespondConflict(c, "membership")
		return
	}

	var pendingCount int64
	h.db.Model(&models.MembershipRequest{}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, user.ID, models.RequestStatusPending).
		Count(&pendingCount)
	if pendingCount > 0 {
		util.RespondConflict(c, "join request")
		return
	}

	var body JoinRequestBody
	_ = c.ShouldBindJSON(&body)

	request := models.MembershipRequest{
		GroupID: groupID,
		UserID:  user.ID,
		Message: body.Message,
		Status:  models.RequestStatusPending,
	}
	if err := h.db.Create(&request).Error; err != nil {
		logger.ErrorWithFields("Failed to create join request", err)
		util.RespondInternalError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// ListJoinRequests returns the group's pending requests (organizer only)
func (h *Handlers) ListJoinRequests(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	groupID := c.Param("id")

	var group models.Group
	err := h.db.Where("id = ?", groupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "group")
		return
	} else if err != nil {
		util.RespondInternalError(c)
		return
	}

	if group.CreatorID != user.ID {
		util.RespondForbidden(c, "only the organizer can view join requests")
		return
	}

	var requests []models.MembershipRequest
	err = h.db.Preload("User").
		Where("group_id = ? AND status = ?", groupID, models.RequestStatusPending).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		util.RespondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// ApproveJoinRequest approves a pending request (organizer only)
func (h *Handlers) ApproveJoinRequest(c *gin.Context) {
	h.decideJoinRequest(c, true)
}

// DeclineJoinRequest declines a pending request (organizer only)
func (h *Handlers) DeclineJoinRequest(c *gin.Context) {
	h.decideJoinRequest(c, false)
}

func (h *Handlers) decideJoinRequest(c *gin.Context, approve bool) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	groupID := c.Param("id")
	requestID := c.Param("requestId")

	var group models.Group
	err := h.db.Where("id = ?", groupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "group")
		return
	} else if err != nil {
		util.RespondInternalError(c)
		return
	}

	if group.CreatorID != user.ID {
		util.RespondForbidden(c, "only the organizer can decide join requests")
		return
	}

	var request models.MembershipRequest
	err = h.db.Where("id = ? AND group_id = ?", requestID, groupID).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "join request")
		return
	} else if err != nil {
		util.RespondInternalError(c)
		return
	}

	if request.Status != models.RequestStatusPending {
		util.RespondConflict(c, "join request")
		return
	}

	status := models.RequestStatusDeclined
	if approve {
		status = models.RequestStatusApproved
	}

	now := time.Now().UTC()
	err = h.db.Transaction(func(tx *gorm.DB) error {
		request.Status = status
		request.DecidedByID = &user.ID
		request.DecidedAt = &now
		if err := tx.Save(&request).Error; err != nil {
			return err
		}
		if approve {
			member := models.GroupMember{GroupID: groupID, UserID: request.UserID}
			return tx.Create(&member).Error
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithFields("Failed to decide join request", err)
		util.RespondInternalError(c)
		return
	}

	if err := h.dispatcher.NotifyRequestDecided(&group, &request, approve); err != nil {
		logger.WarnWithFields("Failed to record decision notification", err)
	}

	// New members start receiving the group's chat pushes
	if approve {
		go h.subscribeUserDevices(request.UserID, group.Topic())
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// subscribeUserDevices subscribes all of a user's device tokens to a topic.
// Best-effort; failures are logged.
func (h *Handlers) subscribeUserDevices(userID, topic string) {
	var tokens []models.DeviceToken
	if err := h.db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		logger.WarnWithFields("Failed to load device tokens", err)
		return
	}
	for _, t := range tokens {
		if err := h.gateway.SubscribeToTopic(t.Token, topic); err != nil {
			logger.Log.Warn("Topic subscribe failed",
				zap.String("user_id", userID),
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	}
}
