package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/service"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/response"
)

// StaffHandler exposes staff permission administration endpoints.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler creates a new handler.
func NewStaffHandler(staff *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// Get godoc
// @Summary Get one staff member with roles
// @Tags Staff
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/staff/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	staff, err := h.staff.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// SetUserPermissions godoc
// @Summary Replace a staff member's individual page overrides
// @Tags Staff
// @Accept json
// @Produce json
// @Param id path string true "Staff ID"
// @Param payload body models.PagePermissions true "Page permissions"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/staff/{id}/permissions [put]
func (h *StaffHandler) SetUserPermissions(c *gin.Context) {
	var permissions models.PagePermissions
	if err := c.ShouldBindJSON(&permissions); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permissions payload"))
		return
	}

	if err := h.staff.SetUserPermissions(c.Request.Context(), c.Param("id"), permissions); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListRoles godoc
// @Summary List roles with their page grants
// @Tags Staff
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/roles [get]
func (h *StaffHandler) ListRoles(c *gin.Context) {
	roles, err := h.staff.ListRoles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles, nil)
}

// SetRolePermissions godoc
// @Summary Replace a role's page grants
// @Tags Staff
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param payload body models.PagePermissions true "Page permissions"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/roles/{id}/permissions [put]
func (h *StaffHandler) SetRolePermissions(c *gin.Context) {
	var permissions models.PagePermissions
	if err := c.ShouldBindJSON(&permissions); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permissions payload"))
		return
	}

	if err := h.staff.SetRolePermissions(c.Request.Context(), c.Param("id"), permissions); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
