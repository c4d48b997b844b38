package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/huddle/backend/internal/auth"
	"github.com/zfogg/huddle/backend/internal/logger"
	"github.com/zfogg/huddle/backend/internal/util"
)

// Register creates a new account with email/password
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondConflict(c, "account")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username")
		default:
			logger.ErrorWithFields("Registration failed", err)
			util.RespondInternalError(c, "failed to register")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates with email/password
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		// Same response for unknown email and wrong password
		util.RespondUnauthorized(c, "invalid email or password")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's profile
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
