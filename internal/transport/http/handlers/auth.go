package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkosarev/admincore/internal/infra/security"
	"github.com/dkosarev/admincore/internal/transport/http/middleware"
	"github.com/dkosarev/admincore/internal/usecase"
)

// bearerToken pulls the token out of the Authorization header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthHandler exposes login, logout, and profile endpoints.
type AuthHandler struct {
	auth  *usecase.AuthService
	reset *usecase.PasswordResetService
	users *usecase.UserService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, reset *usecase.PasswordResetService, users *usecase.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, reset: reset, users: users}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}

// Login authenticates credentials and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username and password are required"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
		SourceIP: c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrInactiveAccount, Status: http.StatusForbidden, Message: "account is not active"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toUserView(result.User),
	})
}

// Logout revokes the caller's token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "missing bearer token"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUnauthenticated, Status: http.StatusUnauthorized, Message: "invalid token"},
		}, http.StatusInternalServerError, "logout failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// ProfileResponse is the caller's account plus granted permission codes.
type ProfileResponse struct {
	User        UserView `json:"user"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Profile returns the authenticated account with its permission codes.
func (h *AuthHandler) Profile(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	user, codes, err := h.auth.Profile(c.Request.Context(), principal)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUnauthenticated, Status: http.StatusUnauthorized, Message: "authentication required"},
		}, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	roles := make([]string, 0, len(principal.Roles))
	for _, role := range principal.Roles {
		roles = append(roles, role.Code)
	}

	c.JSON(http.StatusOK, ProfileResponse{
		User:        toUserView(*user),
		Roles:       roles,
		Permissions: codes,
	})
}

// ChangePasswordRequest is the self-service password rotation payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ChangePassword rotates the caller's own password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal.Anonymous() {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "current and new passwords are required"))
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var validation *security.PasswordValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Message))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPasswordMismatch, Status: http.StatusBadRequest, Message: "current password does not match"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "password change failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

// ResetRequestRequest asks for a reset code by email.
type ResetRequestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestReset issues a one-time reset code to the address.
func (h *AuthHandler) RequestReset(c *gin.Context) {
	var req ResetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "a valid email is required"))
		return
	}

	if err := h.reset.Request(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "reset request failed"))
		return
	}

	// same response whether or not the address exists
	c.JSON(http.StatusOK, MessageResponse{Message: "if the address is registered, a code has been sent"})
}

// ResetConfirmRequest completes the reset flow.
type ResetConfirmRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// ConfirmReset consumes the code and sets the new password.
func (h *AuthHandler) ConfirmReset(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email, code, and new password are required"))
		return
	}

	err := h.reset.Confirm(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		var validation *security.PasswordValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Message))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetCodeInvalid, Status: http.StatusBadRequest, Message: "reset code invalid or expired"},
		}, http.StatusInternalServerError, "password reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset"})
}
