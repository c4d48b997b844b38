package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/auth"
	"github.com/zfogg/huddle/backend/internal/util"
)

// AuthMiddleware validates the Bearer token and loads the user into the
// request context under "user_id" and "user".
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "no token provided")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			util.RespondUnauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		user, err := authService.ValidateToken(token)
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
