package handler

import (
	"github.com/carehours/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles user management HTTP requests
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create godoc
// @ID           createUser
// @Summary      Create a user
// @Description  Create a login, optionally linked to a provider
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identity.CreateUserRequest true "User"
// @Success      201 {object} APIResponse[identity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req identity.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// GetByID godoc
// @ID           getUserById
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// List godoc
// @ID           listUsers
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        search    query string false "Username, email or display name"
// @Param        status    query string false "Status" Enums(active, locked, deactivated)
// @Param        role_id   query string false "Role ID" format(uuid)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]identity.UserResponse]
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter identity.UserListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	users, total, err := h.userService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, users, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateUser
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "User ID" format(uuid)
// @Param        request body identity.UpdateUserRequest true "Changes"
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req identity.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.withUser(c, func(tenantID, id, _ uuid.UUID) (any, error) {
		return h.userService.Update(c.Request.Context(), tenantID, id, req)
	})
}

// AssignRoles godoc
// @ID           assignUserRoles
// @Summary      Replace a user's roles
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "User ID" format(uuid)
// @Param        request body identity.AssignRolesRequest true "Roles"
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Security     BearerAuth
// @Router       /users/{id}/roles [put]
func (h *UserHandler) AssignRoles(c *gin.Context) {
	var req identity.AssignRolesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.withUser(c, func(tenantID, id, _ uuid.UUID) (any, error) {
		return h.userService.AssignRoles(c.Request.Context(), tenantID, id, req)
	})
}

// Activate godoc
// @ID           activateUser
// @Summary      Activate a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Security     BearerAuth
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	h.withUser(c, func(tenantID, id, _ uuid.UUID) (any, error) {
		return h.userService.Activate(c.Request.Context(), tenantID, id)
	})
}

// Deactivate godoc
// @ID           deactivateUser
// @Summary      Deactivate a user
// @Description  Users cannot deactivate themselves
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.withUser(c, func(tenantID, id, actorID uuid.UUID) (any, error) {
		return h.userService.Deactivate(c.Request.Context(), tenantID, id, actorID)
	})
}

// Unlock godoc
// @ID           unlockUser
// @Summary      Unlock a user
// @Description  Clear the failed login counter and lock
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Security     BearerAuth
// @Router       /users/{id}/unlock [post]
func (h *UserHandler) Unlock(c *gin.Context) {
	h.withUser(c, func(tenantID, id, _ uuid.UUID) (any, error) {
		return h.userService.Unlock(c.Request.Context(), tenantID, id)
	})
}

// ResetPassword godoc
// @ID           resetUserPassword
// @Summary      Reset a user's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "User ID" format(uuid)
// @Param        request body identity.ResetPasswordRequest true "New password"
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Security     BearerAuth
// @Router       /users/{id}/password [put]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req identity.ResetPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.withUser(c, func(tenantID, id, _ uuid.UUID) (any, error) {
		return h.userService.ResetPassword(c.Request.Context(), tenantID, id, req)
	})
}

// Delete godoc
// @ID           deleteUser
// @Summary      Delete a user
// @Tags         users
// @Param        id path string true "User ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	actorID, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), tenantID, id, actorID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// withUser resolves tenant, path ID and actor, then answers with fn's result
func (h *UserHandler) withUser(c *gin.Context, fn func(tenantID, id, actorID uuid.UUID) (any, error)) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	actorID, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := fn(tenantID, id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
