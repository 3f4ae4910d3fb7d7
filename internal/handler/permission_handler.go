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

type PermissionHandler struct {
	permissionService service.PermissionService
	guard             *middleware.Guard
	logger            *slog.Logger
}

func NewPermissionHandler(permissionService service.PermissionService, guard *middleware.Guard, logger *slog.Logger) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService, guard: guard, logger: logger}
}

func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	perms := router.Group("/permissions")
	perms.Use(h.guard.Authenticate())
	{
		perms.GET("", h.guard.RequirePermission(service.PermViewPermissions), h.ListPermissions)
		perms.GET("/:id", h.guard.RequirePermission(service.PermViewPermissions), h.GetPermission)
		perms.POST("", h.guard.RequirePermission(service.PermCreatePermissions), h.CreatePermission)
		perms.PUT("/:id", h.guard.RequirePermission(service.PermEditPermissions), h.UpdatePermission)
		perms.PATCH("/:id", h.guard.RequirePermission(service.PermEditPermissions), h.UpdatePermission)
		perms.DELETE("/:id", h.guard.RequirePermission(service.PermDeletePermissions), h.DeletePermission)
	}
}

// ListPermissions handles GET /permissions
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int  false  "Page number"
// @Success      200      {object}  PermissionPage
// @Failure      403      {object}  response.Response
// @Router       /permissions [get]
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	p := pagination.Parse(c)
	perms, total, err := h.permissionService.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(perms, total, p, pagination.RequestPath(c)))
}

// GetPermission handles GET /permissions/{id}
// @Summary      Get permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Permission ID"
// @Success      200      {object}  service.PermissionResponse
// @Failure      404      {object}  response.Response
// @Router       /permissions/{id} [get]
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	perm, err := h.permissionService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, perm)
}

// CreatePermission handles POST /permissions
// @Summary      Create permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePermissionRequest  true  "Create Permission Payload"
// @Success      201      {object}  PermissionMessageResponse
// @Failure      422      {object}  response.Response
// @Router       /permissions [post]
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	perm, err := h.permissionService.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, PermissionMessageResponse{Message: "Permission created successfully", Permission: perm})
}

// UpdatePermission handles PUT /permissions/{id}
// @Summary      Update permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Permission ID"
// @Param        payload  body      service.UpdatePermissionRequest  true  "Update Permission Payload"
// @Success      200      {object}  PermissionMessageResponse
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /permissions/{id} [put]
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdatePermissionRequest
	if !bindJSON(c, &req) {
		return
	}
	perm, err := h.permissionService.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, PermissionMessageResponse{Message: "Permission updated successfully", Permission: perm})
}

// DeletePermission handles DELETE /permissions/{id}
// @Summary      Delete permission
// @Description  Deletes the permission and detaches it from every role and user
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Permission ID"
// @Success      200      {object}  response.Message
// @Failure      404      {object}  response.Response
// @Router       /permissions/{id} [delete]
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.permissionService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Message{Message: "Permission deleted successfully"})
}
