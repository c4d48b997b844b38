package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/auth"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/messages"
	"github.com/zfogg/huddle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles WebSocket HTTP upgrade requests and routes group chat
// subscriptions into the message service.
type Handler struct {
	hub         *Hub
	db          *gorm.DB
	authService *auth.Service
	msgService  *messages.Service
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, db *gorm.DB, authService *auth.Service, msgService *messages.Service) *Handler {
	h := &Handler{
		hub:         hub,
		db:          db,
		authService: authService,
		msgService:  msgService,
	}
	h.registerChatHandlers()
	return h
}

// HandleWebSocket handles WebSocket upgrade requests
// Authentication is done via JWT token in query param: ?token=...
// Or via Authorization header: Bearer <token>
func (h *Handler) HandleWebSocket(c *gin.Context) {
	user, err := h.authenticateRequest(c)
	if err != nil {
		logger.Log.Warn("WebSocket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": err.Error(),
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origins restricted by the CORS layer
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.ErrorWithFields("WebSocket upgrade failed", err)
		return
	}

	client := NewClient(h.hub, conn, user.ID, user.Username)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to Huddle!",
		Data: map[string]interface{}{
			"user_id":     user.ID,
			"username":    user.Username,
			"server_time": time.Now().UTC().UnixMilli(),
			"session_id":  fmt.Sprintf("%p", client),
		},
	}))

	go client.WritePump()
	client.ReadPump() // blocks until client disconnects
}

// authenticateRequest extracts and validates the JWT token from the request
func (h *Handler) authenticateRequest(c *gin.Context) (*models.User, error) {
	tokenString := ""

	// First check query parameter
	if token := c.Query("token"); token != "" {
		tokenString = token
	}

	// Then check Authorization header
	if auth := c.GetHeader("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		} else {
			tokenString = auth
		}
	}

	if tokenString == "" {
		return nil, errors.New("no authentication token provided")
	}

	return h.authService.ValidateToken(tokenString)
}

// registerChatHandlers wires join/leave messages into the message service's
// live subscriptions. A joined client receives the current snapshot
// immediately and a full recomputed snapshot after every change.
func (h *Handler) registerChatHandlers() {
	h.hub.RegisterHandler(MessageTypeJoinGroup, func(client *Client, msg *Message) error {
		var payload JoinGroupPayload
		if err := msg.ParsePayload(&payload); err != nil {
			return err
		}
		if payload.GroupID == "" {
			client.SendError("invalid_payload", "group_id is required")
			return nil
		}

		allowed, err := h.canAccessGroup(payload.GroupID, client.UserID)
		if err != nil {
			return err
		}
		if !allowed {
			client.SendError("forbidden", "not a member of this group")
			return nil
		}

		groupID := payload.GroupID
		sub, err := h.msgService.Subscribe(groupID, func(snapshot []models.Message) {
			client.Send(NewMessage(MessageTypeChatSnapshot, SnapshotPayload{
				GroupID:  groupID,
				Messages: snapshot,
			}))
		})
		if err != nil {
			client.SendError("subscribe_failed", err.Error())
			return nil
		}

		client.AddSubscription(groupID, sub)
		return nil
	})

	h.hub.RegisterHandler(MessageTypeLeaveGroup, func(client *Client, msg *Message) error {
		var payload LeaveGroupPayload
		if err := msg.ParsePayload(&payload); err != nil {
			return err
		}
		client.RemoveSubscription(payload.GroupID)
		return nil
	})
}

// canAccessGroup reports whether userID is the organizer or a member
func (h *Handler) canAccessGroup(groupID, userID string) (bool, error) {
	var group models.Group
	if err := h.db.Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if group.CreatorID == userID {
		return true, nil
	}

	var count int64
	err := h.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// NotifyUser pushes a durable notification over the socket to all of the
// user's connections
func (h *Handler) NotifyUser(userID string, n *models.Notification) {
	h.hub.SendToUser(userID, NewMessage(MessageTypeNotification, NotificationPayload{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Data,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UnixMilli(),
	}))
}

// HandleMetrics returns WebSocket metrics (for monitoring)
func (h *Handler) HandleMetrics(c *gin.Context) {
	metrics := h.hub.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"websocket":    metrics,
		"online_users": h.hub.GetOnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// Shutdown gracefully shuts down the WebSocket handler
func (h *Handler) Shutdown(ctx context.Context) error {
	return h.hub.Shutdown(ctx)
}

// GetHub returns the hub for external access
func (h *Handler) GetHub() *Hub {
	return h.hub
}
