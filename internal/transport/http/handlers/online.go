package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkosarev/admincore/internal/transport/http/middleware"
	"github.com/dkosarev/admincore/internal/usecase"
)

// OnlineHandler exposes the live-session registry.
type OnlineHandler struct {
	sessions *usecase.SessionService
}

// NewOnlineHandler constructs an OnlineHandler.
func NewOnlineHandler(sessions *usecase.SessionService) *OnlineHandler {
	return &OnlineHandler{sessions: sessions}
}

// List returns every tracked live session.
func (h *OnlineHandler) List(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "session lookup failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// ForceLogoutRequest carries the token of the session to terminate.
type ForceLogoutRequest struct {
	Token string `json:"token" binding:"required"`
}

// ForceLogout revokes a session's token and drops its record.
func (h *OnlineHandler) ForceLogout(c *gin.Context) {
	var req ForceLogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token is required"))
		return
	}

	actor := middleware.GetPrincipal(c)
	if err := h.sessions.ForceLogout(c.Request.Context(), actor, req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "force logout failed"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session terminated"})
}
