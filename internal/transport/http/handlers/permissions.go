package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkosarev/admincore/internal/usecase"
)

// PermissionHandler exposes permission-tree administration endpoints.
type PermissionHandler struct {
	permissions *usecase.PermissionService
}

// NewPermissionHandler constructs a PermissionHandler.
func NewPermissionHandler(permissions *usecase.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions}
}

var permissionErrorCases = []ErrorCase{
	{Err: usecase.ErrPermissionNotFound, Status: http.StatusNotFound, Message: "permission not found"},
	{Err: usecase.ErrPermissionHasChildren, Status: http.StatusConflict, Message: "permission has child nodes"},
}

// PermissionRequest is the create/update payload.
type PermissionRequest struct {
	Name     string  `json:"name" binding:"required"`
	Code     string  `json:"code"`
	Type     string  `json:"type"`
	ParentID *string `json:"parentId"`
	Sort     int     `json:"sort"`
}

func (r PermissionRequest) toInput() usecase.PermissionInput {
	return usecase.PermissionInput{
		Name:     r.Name,
		Code:     r.Code,
		Type:     r.Type,
		ParentID: r.ParentID,
		Sort:     r.Sort,
	}
}

// Create inserts a permission node.
func (h *PermissionHandler) Create(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name is required"))
		return
	}

	permission, err := h.permissions.Create(c.Request.Context(), req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, permissionErrorCases, http.StatusInternalServerError, "permission creation failed")
		return
	}

	c.JSON(http.StatusCreated, permission)
}

// Update modifies a permission node.
func (h *PermissionHandler) Update(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name is required"))
		return
	}

	permission, err := h.permissions.Update(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, permissionErrorCases, http.StatusInternalServerError, "permission update failed")
		return
	}

	c.JSON(http.StatusOK, permission)
}

// Delete removes a leaf permission node.
func (h *PermissionHandler) Delete(c *gin.Context) {
	if err := h.permissions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, permissionErrorCases, http.StatusInternalServerError, "permission deletion failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permission deleted"})
}

// Tree returns the assembled permission forest.
func (h *PermissionHandler) Tree(c *gin.Context) {
	tree, err := h.permissions.Tree(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "permission tree failed"))
		return
	}
	c.JSON(http.StatusOK, tree)
}
