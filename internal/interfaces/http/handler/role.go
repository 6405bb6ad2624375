package handler

import (
	"github.com/carehours/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// RoleHandler handles role management HTTP requests
type RoleHandler struct {
	BaseHandler
	roleService *identity.RoleService
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService *identity.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// Create godoc
// @ID           createRole
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        request body identity.CreateRoleRequest true "Role"
// @Success      201 {object} APIResponse[identity.RoleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	var req identity.CreateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, role)
}

// GetByID godoc
// @ID           getRoleById
// @Summary      Get a role
// @Tags         roles
// @Produce      json
// @Param        id path string true "Role ID" format(uuid)
// @Success      200 {object} APIResponse[identity.RoleResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /roles/{id} [get]
func (h *RoleHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	role, err := h.roleService.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, role, err)
}

// List godoc
// @ID           listRoles
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Param        search     query string false "Code or name"
// @Param        is_enabled query bool   false "Enabled only"
// @Param        page       query int    false "Page" default(1)
// @Param        page_size  query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]identity.RoleResponse]
// @Security     BearerAuth
// @Router       /roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	var filter identity.RoleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	roles, total, err := h.roleService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, roles, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateRole
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Role ID" format(uuid)
// @Param        request body identity.UpdateRoleRequest true "Changes"
// @Success      200 {object} APIResponse[identity.RoleResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /roles/{id} [put]
func (h *RoleHandler) Update(c *gin.Context) {
	var req identity.UpdateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	role, err := h.roleService.Update(c.Request.Context(), tenantID, id, req)
	h.respond(c, role, err)
}

// SetPermissions godoc
// @ID           setRolePermissions
// @Summary      Replace a role's permissions
// @Description  Codes take the form resource:action. resource:* and *:* are wildcards.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Role ID" format(uuid)
// @Param        request body identity.SetPermissionsRequest true "Permissions"
// @Success      200 {object} APIResponse[identity.RoleResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /roles/{id}/permissions [put]
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	var req identity.SetPermissionsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	role, err := h.roleService.SetPermissions(c.Request.Context(), tenantID, id, req)
	h.respond(c, role, err)
}

// Delete godoc
// @ID           deleteRole
// @Summary      Delete a role
// @Description  System roles and roles still assigned to users cannot be deleted
// @Tags         roles
// @Param        id path string true "Role ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.roleService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Permissions godoc
// @ID           listPermissions
// @Summary      List grantable permissions
// @Tags         roles
// @Produce      json
// @Success      200 {object} APIResponse[PermissionsData]
// @Security     BearerAuth
// @Router       /permissions [get]
func (h *RoleHandler) Permissions(c *gin.Context) {
	h.Success(c, PermissionsData{Permissions: h.roleService.Permissions()})
}
