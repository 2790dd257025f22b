package handler

import (
	"net/http"

	"reviewboard/internal/middleware"
	"reviewboard/internal/model"
	"reviewboard/internal/service"
	"reviewboard/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RoleHandler struct {
	roleService service.RoleService
	authz       service.AuthzService
}

func NewRoleHandler(roleService service.RoleService, authz service.AuthzService) *RoleHandler {
	return &RoleHandler{roleService: roleService, authz: authz}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	canRead := middleware.RequirePermission(h.authz, model.ResourceRoles, model.ActionRead)
	canUpdate := middleware.RequirePermission(h.authz, model.ResourceRoles, model.ActionUpdate)

	roles := router.Group("/api/roles")
	{
		roles.GET("", canRead, h.ListRoles)
		roles.GET("/:id", canRead, h.GetRole)
		roles.POST("", canUpdate, h.CreateRole)
		roles.PUT("/:id", canUpdate, h.UpdateRole)
		roles.DELETE("/:id", canUpdate, h.DeleteRole)
		roles.PUT("/:id/status", canUpdate, h.SetStatus)
		roles.PUT("/:id/permissions", canUpdate, h.SetPermissions)
	}

	perms := router.Group("/api/permissions")
	perms.Use(canRead)
	{
		perms.GET("", h.ListPermissions)
	}
}

// ListRoles returns all roles with their permission matrices
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// GetRole returns a single role by ID
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole creates a new custom role
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole updates a role's name and description
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.invalidate(c.Param("id"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole deletes a non-system role. Pass ?soft=true to accept a
// soft delete when the role is still assigned to users.
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	acceptSoft := c.Query("soft") == "true"

	if err := h.roleService.DeleteRole(c.Request.Context(), middleware.GetActor(c), c.Param("id"), acceptSoft); err != nil {
		respondErr(c, err)
		return
	}

	h.invalidate(c.Param("id"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role deleted successfully"}))
}

// SetStatus activates or deactivates a role
func (h *RoleHandler) SetStatus(c *gin.Context) {
	var req service.SetRoleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	role, err := h.roleService.SetStatus(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.invalidate(c.Param("id"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// SetPermissions replaces the action set for one resource on a role
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	var req service.SetPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	role, err := h.roleService.SetPermissions(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.invalidate(c.Param("id"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// ListPermissions returns the full permission catalogue
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// invalidate drops the cached role snapshot after a mutation so permission
// checks pick up the change immediately
func (h *RoleHandler) invalidate(id string) {
	if roleID, err := uuid.Parse(id); err == nil {
		h.authz.InvalidateRole(roleID)
	} else {
		h.authz.InvalidateAll()
	}
}
