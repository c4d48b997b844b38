package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/models"
	"gorm.io/gorm"
)

// RequireAdmin ensures the request is authenticated and the user is an
// admin. It must run after AuthMiddleware, which sets "user_id".
//
// The role check reads fresh user data. If that lookup fails, or the user's
// role flag is off, the ADMIN_EMAILS allow-list (comma-separated) is
// consulted as a fallback so operators keep access while role data is being
// migrated.
func RequireAdmin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDInterface, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		userID, ok := userIDInterface.(string)
		if !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_user_context"})
			c.Abort()
			return
		}

		var user models.User
		if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
			// Role lookup failed: fall back to the allow-list using the
			// email from the auth middleware, if present.
			if ctxUser, exists := c.Get("user"); exists {
				if u, ok := ctxUser.(*models.User); ok && emailInAllowList(u.Email) {
					c.Next()
					return
				}
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			c.Abort()
			return
		}

		if !user.IsAdmin && !emailInAllowList(user.Email) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin_access_required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// emailInAllowList checks the ADMIN_EMAILS env var (comma-separated,
// case-insensitive)
func emailInAllowList(email string) bool {
	allowList := os.Getenv("ADMIN_EMAILS")
	if allowList == "" || email == "" {
		return false
	}
	for _, allowed := range strings.Split(allowList, ",") {
		if strings.EqualFold(strings.TrimSpace(allowed), email) {
			return true
		}
	}
	return false
}
