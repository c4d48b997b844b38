package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/huddle/backend/internal/auth"
	"github.com/zfogg/huddle/backend/internal/cache"
	"github.com/zfogg/huddle/backend/internal/database"
	"github.com/zfogg/huddle/backend/internal/handlers"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/messages"
	"github.com/zfogg/huddle/backend/internal/metrics"
	"github.com/zfogg/huddle/backend/internal/middleware"
	"github.com/zfogg/huddle/backend/internal/notify"
	"github.com/zfogg/huddle/backend/internal/push"
	"github.com/zfogg/huddle/backend/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	// .env is a development convenience; production uses real env vars
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	metrics.Initialize()

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.FatalWithFields("JWT_SECRET environment variable is required", nil)
	}

	db := database.DB
	authService := auth.NewService(db, jwtSecret)
	msgService := messages.NewService(db)

	// Without a gateway key we still boot, but pushes become logged no-ops
	// so local development works offline.
	var gateway push.GatewayInterface
	gatewayClient, err := push.NewClient()
	if err != nil {
		logger.Warn("Push gateway not configured, notifications will be dropped",
			zap.Error(err))
		gateway = push.NewMockGateway()
	} else {
		gateway = gatewayClient
	}

	dispatcher := notify.NewDispatcher(db, gateway, 0)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Redis is optional. Admin stat caching degrades to direct queries.
	var redisClient *cache.RedisClient
	if host := os.Getenv("REDIS_HOST"); host != "" {
		redisClient, err = cache.NewRedisClient(host, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.WarnWithFields("Redis unavailable, continuing without cache", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run()
	wsHandler := websocket.NewHandler(wsHub, db, authService, msgService)

	// Online users see their durable notifications immediately
	dispatcher.SetLiveNotifier(wsHandler)

	h := handlers.NewHandlers(db, authService, msgService, dispatcher, gateway)
	if redisClient != nil {
		h.SetRedisClient(redisClient)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "huddle-backend",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", middleware.AuthMiddleware(authService), h.Me)
		}

		groups := api.Group("/groups")
		{
			groups.Use(middleware.AuthMiddleware(authService))
			groups.POST("", h.CreateGroup)
			groups.GET("", h.ListMyGroups)
			groups.GET("/:id", h.GetGroup)

			groups.POST("/:id/requests", h.RequestToJoin)
			groups.GET("/:id/requests", h.ListJoinRequests)
			groups.POST("/:id/requests/:requestId/approve", h.ApproveJoinRequest)
			groups.POST("/:id/requests/:requestId/decline", h.DeclineJoinRequest)

			groups.POST("/:id/messages", h.CreateMessage)
			groups.GET("/:id/messages", h.ListMessages)
			groups.PATCH("/:id/messages/:messageId", h.ModerateMessage)
			groups.DELETE("/:id/messages/:messageId", h.DeleteMessage)
			groups.POST("/:id/messages/:messageId/reports", h.ReportMessage)
		}

		// Group abuse reports come from the mobile report sheet, which may
		// fire before the reporter has a session. Identity is in the payload.
		api.POST("/reports", h.CreateGroupReport)

		pushGroup := api.Group("/push")
		{
			pushGroup.Use(middleware.AuthMiddleware(authService))
			pushGroup.POST("/send", h.SendPush)
			pushGroup.POST("/subscribe", h.SubscribeTopic)
			pushGroup.POST("/unsubscribe", h.UnsubscribeTopic)
		}

		notifications := api.Group("/notifications")
		{
			notifications.Use(middleware.AuthMiddleware(authService))
			notifications.GET("", h.ListNotifications)
			notifications.GET("/unread-count", h.GetUnreadCount)
			notifications.POST("/:id/read", h.MarkNotificationRead)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
		}

		devices := api.Group("/devices")
		{
			devices.Use(middleware.AuthMiddleware(authService))
			devices.POST("", h.RegisterDevice)
			devices.DELETE("", h.UnregisterDevice)
		}

		admin := api.Group("/admin")
		{
			admin.Use(middleware.AuthMiddleware(authService))
			admin.Use(middleware.RequireAdmin(db))
			admin.GET("/stats", h.GetAdminStats)
		}

		ws := api.Group("/ws")
		{
			// Auth via query param ?token=... or Authorization header
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/metrics", middleware.AuthMiddleware(authService), wsHandler.HandleMetrics)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8787"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.InfoWithFields("Huddle backend starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoWithFields("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.WarnWithFields("WebSocket shutdown warning", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}

	logger.InfoWithFields("Server exited")
}
