package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkosarev/admincore/internal/infra/security"
	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/transport/http/middleware"
	"github.com/dkosarev/admincore/internal/usecase"
)

// UserHandler exposes account administration endpoints.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUserRequest is the account creation payload.
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Nickname string  `json:"nickname"`
	Email    string  `json:"email"`
	Password string  `json:"password" binding:"required"`
	UnitID   *string `json:"unitId"`
}

// Create registers an account.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username and password are required"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), middleware.GetPrincipal(c), usecase.CreateUserInput{
		Username: req.Username,
		Nickname: req.Nickname,
		Email:    req.Email,
		Password: req.Password,
		UnitID:   req.UnitID,
	})
	if err != nil {
		var validation *security.PasswordValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Message))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "username already taken"},
		}, http.StatusInternalServerError, "user creation failed")
		return
	}

	c.JSON(http.StatusCreated, toUserView(*user))
}

// UpdateUserRequest carries the mutable profile fields. Absent fields stay
// unchanged.
type UpdateUserRequest struct {
	Nickname *string `json:"nickname"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"isActive"`
	UnitID   *string `json:"unitId"`
}

// Update modifies an account.
func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "malformed payload"))
		return
	}

	user, err := h.users.Update(c.Request.Context(), usecase.UpdateUserInput{
		ID:       c.Param("id"),
		Nickname: req.Nickname,
		Email:    req.Email,
		IsActive: req.IsActive,
		UnitID:   req.UnitID,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "user update failed")
		return
	}

	c.JSON(http.StatusOK, toUserView(*user))
}

// Delete removes an account.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "user deletion failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}

// Get loads one account.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "user lookup failed")
		return
	}

	c.JSON(http.StatusOK, toUserView(*user))
}

// ListUsersQuery binds paging plus the declared filter fields.
type ListUsersQuery struct {
	PageQuery
	Username string `form:"username"`
	Nickname string `form:"nickname"`
	Email    string `form:"email"`
	IsActive *bool  `form:"isActive"`
	UnitIDs  string `form:"unitIds"`
}

// List returns a filtered, scoped, paged account list.
func (h *UserHandler) List(c *gin.Context) {
	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "malformed query parameters"))
		return
	}

	req, err := q.toPageRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "timestamps must be RFC 3339"))
		return
	}

	filter := map[string]any{
		"username": q.Username,
		"nickname": q.Nickname,
		"email":    q.Email,
	}
	if q.IsActive != nil {
		filter["isActive"] = *q.IsActive
	}
	if q.UnitIDs != "" {
		filter["unitIds"] = q.UnitIDs
	}

	page, err := h.users.List(c.Request.Context(), middleware.GetPrincipal(c), filter, req)
	if err != nil {
		if errors.Is(err, query.ErrBadFilterValue) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid filter value"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "user listing failed"))
		return
	}

	c.JSON(http.StatusOK, PageEnvelope{
		Items: toUserViews(page.Items),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// AssignRolesRequest replaces an account's role set.
type AssignRolesRequest struct {
	RoleIDs []string `json:"roleIds"`
}

// AssignRoles replaces the account's role assignments.
func (h *UserHandler) AssignRoles(c *gin.Context) {
	var req AssignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "malformed payload"))
		return
	}

	err := h.users.AssignRoles(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"), req.RoleIDs)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "role assignment failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "roles assigned"})
}
