package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rbac-backend/internal/middleware"
	"rbac-backend/internal/service"
	"rbac-backend/pkg/pagination"
	"rbac-backend/pkg/response"
)

type RoleHandler struct {
	roleService service.RoleService
	guard       *middleware.Guard
	logger      *slog.Logger
}

func NewRoleHandler(roleService service.RoleService, guard *middleware.Guard, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{roleService: roleService, guard: guard, logger: logger}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	roles.Use(h.guard.Authenticate())
	{
		roles.GET("", h.guard.RequirePermission(service.PermViewRoles), h.ListRoles)
		roles.GET("/:id", h.guard.RequirePermission(service.PermViewRoles), h.GetRole)
		roles.POST("", h.guard.RequirePermission(service.PermCreateRoles), h.CreateRole)
		roles.PUT("/:id", h.guard.RequirePermission(service.PermEditRoles), h.UpdateRole)
		roles.PATCH("/:id", h.guard.RequirePermission(service.PermEditRoles), h.UpdateRole)
		roles.DELETE("/:id", h.guard.RequirePermission(service.PermDeleteRoles), h.DeleteRole)
	}
}

// ListRoles handles GET /roles
// @Summary      List roles
// @Description  Returns one page (10 per page) of roles with their permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int  false  "Page number"
// @Success      200      {object}  RolePage
// @Failure      403      {object}  response.Response
// @Router       /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	p := pagination.Parse(c)
	roles, total, err := h.roleService.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(roles, total, p, pagination.RequestPath(c)))
}

// GetRole handles GET /roles/{id}
// @Summary      Get role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Role ID"
// @Success      200      {object}  service.RoleResponse
// @Failure      404      {object}  response.Response
// @Router       /roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	role, err := h.roleService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// CreateRole handles POST /roles
// @Summary      Create role
// @Description  Creates a role. Every permission name must exist or nothing is created.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Create Role Payload"
// @Success      201      {object}  RoleMessageResponse
// @Failure      422      {object}  response.Response
// @Router       /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, RoleMessageResponse{Message: "Role created successfully", Role: role})
}

// UpdateRole handles PUT /roles/{id}
// @Summary      Update role
// @Description  Updates the role. A permissions list replaces the role's permission set.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Update Role Payload"
// @Success      200      {object}  RoleMessageResponse
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, RoleMessageResponse{Message: "Role updated successfully", Role: role})
}

// DeleteRole handles DELETE /roles/{id}
// @Summary      Delete role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Role ID"
// @Success      200      {object}  response.Message
// @Failure      404      {object}  response.Response
// @Router       /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.roleService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Message{Message: "Role deleted successfully"})
}
