package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/transport/http/middleware"
	"github.com/dkosarev/admincore/internal/usecase"
)

// RoleHandler exposes role administration endpoints.
type RoleHandler struct {
	roles *usecase.RoleService
}

// NewRoleHandler constructs a RoleHandler.
func NewRoleHandler(roles *usecase.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

var roleErrorCases = []ErrorCase{
	{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
	{Err: usecase.ErrRoleCodeTaken, Status: http.StatusConflict, Message: "role code already taken"},
	{Err: usecase.ErrInvalidDataScope, Status: http.StatusBadRequest, Message: "invalid data scope"},
	{Err: usecase.ErrCustomUnitsNotAllowed, Status: http.StatusBadRequest, Message: "unit set only applies to CUSTOM scope"},
}

// RoleRequest is the create/update payload.
type RoleRequest struct {
	Name      string   `json:"name" binding:"required"`
	Code      string   `json:"code" binding:"required"`
	DataScope string   `json:"dataScope" binding:"required"`
	UnitIDs   []string `json:"unitIds"`
}

func (r RoleRequest) toInput() usecase.RoleInput {
	return usecase.RoleInput{
		Name:      r.Name,
		Code:      r.Code,
		DataScope: domain.DataScope(r.DataScope),
		UnitIDs:   r.UnitIDs,
	}
}

// Create registers a role.
func (h *RoleHandler) Create(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name, code, and dataScope are required"))
		return
	}

	role, err := h.roles.Create(c.Request.Context(), middleware.GetPrincipal(c), req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "role creation failed")
		return
	}

	c.JSON(http.StatusCreated, toRoleView(*role))
}

// Update modifies a role.
func (h *RoleHandler) Update(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name, code, and dataScope are required"))
		return
	}

	role, err := h.roles.Update(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"), req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "role update failed")
		return
	}

	c.JSON(http.StatusOK, toRoleView(*role))
}

// Delete removes a role.
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.roles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "role deletion failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role deleted"})
}

// Get loads one role.
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.roles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "role lookup failed")
		return
	}

	c.JSON(http.StatusOK, toRoleView(*role))
}

// ListRolesQuery binds paging plus the declared filter fields.
type ListRolesQuery struct {
	PageQuery
	Name      string `form:"name"`
	Code      string `form:"code"`
	DataScope string `form:"dataScope"`
}

// List returns a filtered, paged role list.
func (h *RoleHandler) List(c *gin.Context) {
	var q ListRolesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "malformed query parameters"))
		return
	}

	req, err := q.toPageRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "timestamps must be RFC 3339"))
		return
	}

	page, err := h.roles.List(c.Request.Context(), map[string]any{
		"name":      q.Name,
		"code":      q.Code,
		"dataScope": q.DataScope,
	}, req)
	if err != nil {
		if errors.Is(err, query.ErrBadFilterValue) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid filter value"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "role listing failed"))
		return
	}

	c.JSON(http.StatusOK, PageEnvelope{
		Items: toRoleViews(page.Items),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// ListAll returns every role for assignment pickers.
func (h *RoleHandler) ListAll(c *gin.Context) {
	roles, err := h.roles.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "role listing failed"))
		return
	}
	c.JSON(http.StatusOK, toRoleViews(roles))
}

// AssignPermissionsRequest replaces a role's permission links.
type AssignPermissionsRequest struct {
	PermissionIDs []string `json:"permissionIds"`
}

// AssignPermissions replaces the role's permission links.
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	var req AssignPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "malformed payload"))
		return
	}

	if err := h.roles.AssignPermissions(c.Request.Context(), c.Param("id"), req.PermissionIDs); err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "permission assignment failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permissions assigned"})
}

// PermissionIDs returns the permission identifiers linked to the role.
func (h *RoleHandler) PermissionIDs(c *gin.Context) {
	ids, err := h.roles.PermissionIDs(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "permission lookup failed"))
		return
	}
	c.JSON(http.StatusOK, ids)
}
