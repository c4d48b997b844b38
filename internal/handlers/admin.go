package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/middleware"
	"github.com/zfogg/huddle/backend/internal/models"
	"github.com/zfogg/huddle/backend/internal/util"
)

const (
	adminStatsCacheKey = "admin:stats"
	adminStatsCacheTTL = 60 * time.Second
)

// AdminStats is the aggregate counters payload
type AdminStats struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalGroups     int64 `json:"totalGroups"`
	PendingRequests int64 `json:"pendingRequests"`
	TotalPosts      int64 `json:"totalPosts"`
	TotalReports    int64 `json:"totalReports"`
}

// GetAdminStats returns platform-wide counters. Runs behind AuthMiddleware
// and RequireAdmin; results are cached for 60 seconds.
func (h *Handlers) GetAdminStats(c *gin.Context) {
	if h.redis != nil {
		if cached, err := h.redis.Get(c.Request.Context(), adminStatsCacheKey); err == nil {
			var stats AdminStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				middleware.RecordCacheHit("admin_stats")
				c.JSON(http.StatusOK, gin.H{"isAdmin": true, "stats": stats})
				return
			}
		}
		middleware.RecordCacheMiss("admin_stats")
	}

	stats, err := h.computeAdminStats()
	if err != nil {
		logger.ErrorWithFields("Failed to compute admin stats", err)
		util.RespondInternalError(c)
		return
	}

	if h.redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := h.redis.SetEx(ctx, adminStatsCacheKey, data, adminStatsCacheTTL); err != nil {
				logger.WarnWithFields("Failed to cache admin stats", err)
			}
			cancel()
		}
	}

	c.JSON(http.StatusOK, gin.H{"isAdmin": true, "stats": stats})
}

func (h *Handlers) computeAdminStats() (*AdminStats, error) {
	var stats AdminStats

	if err := h.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := h.db.Model(&models.Group{}).Count(&stats.TotalGroups).Error; err != nil {
		return nil, err
	}
	if err := h.db.Model(&models.MembershipRequest{}).
		Where("status = ?", models.RequestStatusPending).
		Count(&stats.PendingRequests).Error; err != nil {
		return nil, err
	}
	if err := h.db.Model(&models.Message{}).Count(&stats.TotalPosts).Error; err != nil {
		return nil, err
	}

	// Message reports and group reports combined
	var messageReports, groupReports int64
	if err := h.db.Model(&models.MessageReport{}).Count(&messageReports).Error; err != nil {
		return nil, err
	}
	if err := h.db.Model(&models.GroupReport{}).Count(&groupReports).Error; err != nil {
		return nil, err
	}
	stats.TotalReports = messageReports + groupReports

	return &stats, nil
}
