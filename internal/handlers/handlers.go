package handlers

import (
	"github.com/zfogg/huddle/backend/internal/auth"
	"github.com/zfogg/huddle/backend/internal/cache"
	"github.com/zfogg/huddle/backend/internal/messages"
	"github.com/zfogg/huddle/backend/internal/notify"
	"github.com/zfogg/huddle/backend/internal/push"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db          *gorm.DB
	authService *auth.Service
	msgService  *messages.Service
	dispatcher  *notify.Dispatcher
	gateway     push.GatewayInterface
	redis       *cache.RedisClient
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, authService *auth.Service, msgService *messages.Service, dispatcher *notify.Dispatcher, gateway push.GatewayInterface) *Handlers {
	return &Handlers{
		db:          db,
		authService: authService,
		msgService:  msgService,
		dispatcher:  dispatcher,
		gateway:     gateway,
	}
}

// SetRedisClient sets the Redis client used for response caching
func (h *Handlers) SetRedisClient(redis *cache.RedisClient) {
	h.redis = redis
}
