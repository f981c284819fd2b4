package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkosarev/admincore/internal/usecase"
)

// UnitHandler exposes organizational unit administration endpoints.
type UnitHandler struct {
	units *usecase.UnitService
}

// NewUnitHandler constructs a UnitHandler.
func NewUnitHandler(units *usecase.UnitService) *UnitHandler {
	return &UnitHandler{units: units}
}

var unitErrorCases = []ErrorCase{
	{Err: usecase.ErrUnitNotFound, Status: http.StatusNotFound, Message: "unit not found"},
	{Err: usecase.ErrUnitHasChildren, Status: http.StatusConflict, Message: "unit has child units"},
	{Err: usecase.ErrUnitHasUsers, Status: http.StatusConflict, Message: "unit still has assigned users"},
}

// UnitRequest is the create/update payload.
type UnitRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parentId"`
	Sort     int     `json:"sort"`
}

// Create inserts a unit.
func (h *UnitHandler) Create(c *gin.Context) {
	var req UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name is required"))
		return
	}

	unit, err := h.units.Create(c.Request.Context(), usecase.UnitInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		Sort:     req.Sort,
	})
	if err != nil {
		RespondWithMappedError(c, err, unitErrorCases, http.StatusInternalServerError, "unit creation failed")
		return
	}

	c.JSON(http.StatusCreated, unit)
}

// Update modifies a unit.
func (h *UnitHandler) Update(c *gin.Context) {
	var req UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name is required"))
		return
	}

	unit, err := h.units.Update(c.Request.Context(), c.Param("id"), usecase.UnitInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		Sort:     req.Sort,
	})
	if err != nil {
		RespondWithMappedError(c, err, unitErrorCases, http.StatusInternalServerError, "unit update failed")
		return
	}

	c.JSON(http.StatusOK, unit)
}

// Delete removes a unit with no children and no assigned users.
func (h *UnitHandler) Delete(c *gin.Context) {
	if err := h.units.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, unitErrorCases, http.StatusInternalServerError, "unit deletion failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "unit deleted"})
}

// Get loads a single unit.
func (h *UnitHandler) Get(c *gin.Context) {
	unit, err := h.units.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, unitErrorCases, http.StatusInternalServerError, "unit lookup failed")
		return
	}

	c.JSON(http.StatusOK, unit)
}

// Tree returns the assembled unit forest.
func (h *UnitHandler) Tree(c *gin.Context) {
	tree, err := h.units.Tree(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "unit tree failed"))
		return
	}
	c.JSON(http.StatusOK, tree)
}
