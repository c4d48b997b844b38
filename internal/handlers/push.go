package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/metrics"
	"github.com/zfogg/huddle/backend/internal/util"
)

// SendPushRequest is the payload for a direct topic send
type SendPushRequest struct {
	Topic string `json:"topic" binding:"required"`
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// SendPush sends a notification to a topic through the gateway. Unlike the
// dispatch path, gateway failures surface here as GATEWAY_ERROR so callers
// can see delivery problems.
func (h *Handlers) SendPush(c *gin.Context) {
	var req SendPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	body := util.TruncatePushBody(req.Body)
	metrics.Get().PushSendsTotal.WithLabelValues("direct").Inc()

	if err := h.gateway.SendToTopic(req.Topic, req.Title, body, nil); err != nil {
		metrics.Get().PushSendsFailed.WithLabelValues("direct").Inc()
		util.RespondGatewayError(c, "push gateway send failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"topic":   req.Topic,
	})
}

// TopicSubscriptionRequest is the payload for subscribe/unsubscribe
type TopicSubscriptionRequest struct {
	Token string `json:"token" binding:"required"`
	Topic string `json:"topic" binding:"required"`
}

// SubscribeTopic adds a device token to a topic. Subscribing a token that
// is already subscribed succeeds.
func (h *Handlers) SubscribeTopic(c *gin.Context) {
	var req TopicSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.gateway.SubscribeToTopic(req.Token, req.Topic); err != nil {
		util.RespondGatewayError(c, "push gateway subscribe failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"topic":   req.Topic,
	})
}

// UnsubscribeTopic removes a device token from a topic. Unsubscribing a
// token that was never subscribed succeeds.
func (h *Handlers) UnsubscribeTopic(c *gin.Context) {
	var req TopicSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.gateway.UnsubscribeFromTopic(req.Token, req.Topic); err != nil {
		util.RespondGatewayError(c, "push gateway unsubscribe failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"topic":   req.Topic,
	})
}
