package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	redisrepo "github.com/dkosarev/admincore/internal/repository/redis"
	"github.com/dkosarev/admincore/internal/usecase"
)

// WhitelistHandler administers the dynamic authentication bypass set.
type WhitelistHandler struct {
	bypass *usecase.BypassService
}

// NewWhitelistHandler constructs a WhitelistHandler.
func NewWhitelistHandler(bypass *usecase.BypassService) *WhitelistHandler {
	return &WhitelistHandler{bypass: bypass}
}

var whitelistErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidBypassPath, Status: http.StatusBadRequest, Message: "path must start with /"},
	{Err: redisrepo.ErrBypassPathExists, Status: http.StatusConflict, Message: "path already whitelisted"},
	{Err: redisrepo.ErrBypassPathMissing, Status: http.StatusNotFound, Message: "path not whitelisted"},
}

// WhitelistRequest carries a single path.
type WhitelistRequest struct {
	Path string `json:"path" binding:"required"`
}

// WhitelistRenameRequest carries the old and new paths for an atomic swap.
type WhitelistRenameRequest struct {
	OldPath string `json:"oldPath" binding:"required"`
	NewPath string `json:"newPath" binding:"required"`
}

// List returns every whitelisted path.
func (h *WhitelistHandler) List(c *gin.Context) {
	paths, err := h.bypass.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "whitelist lookup failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"paths": paths})
}

// Add whitelists a path.
func (h *WhitelistHandler) Add(c *gin.Context) {
	var req WhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "path is required"))
		return
	}

	if err := h.bypass.Add(c.Request.Context(), req.Path); err != nil {
		RespondWithMappedError(c, err, whitelistErrorCases, http.StatusInternalServerError, "whitelist update failed")
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "path whitelisted"})
}

// Remove ends a path's authentication exemption.
func (h *WhitelistHandler) Remove(c *gin.Context) {
	var req WhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "path is required"))
		return
	}

	if err := h.bypass.Remove(c.Request.Context(), req.Path); err != nil {
		RespondWithMappedError(c, err, whitelistErrorCases, http.StatusInternalServerError, "whitelist update failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "path removed"})
}

// Rename atomically swaps one whitelisted path for another. Readers never
// observe a state where neither or both paths are present.
func (h *WhitelistHandler) Rename(c *gin.Context) {
	var req WhitelistRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "oldPath and newPath are required"))
		return
	}

	if err := h.bypass.Rename(c.Request.Context(), req.OldPath, req.NewPath); err != nil {
		RespondWithMappedError(c, err, whitelistErrorCases, http.StatusInternalServerError, "whitelist update failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "path renamed"})
}
