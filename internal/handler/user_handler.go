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

type UserHandler struct {
	userService service.UserService
	guard       *middleware.Guard
	logger      *slog.Logger
}

func NewUserHandler(userService service.UserService, guard *middleware.Guard, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, guard: guard, logger: logger}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.Use(h.guard.Authenticate())
	{
		users.GET("", h.guard.RequirePermission(service.PermViewUsers), h.ListUsers)
		users.GET("/:id", h.guard.RequirePermission(service.PermViewUsers), h.GetUser)
		users.POST("", h.guard.RequirePermission(service.PermCreateUsers), h.CreateUser)
		users.PUT("/:id", h.guard.RequirePermission(service.PermEditUsers), h.UpdateUser)
		users.PATCH("/:id", h.guard.RequirePermission(service.PermEditUsers), h.UpdateUser)
		users.DELETE("/:id", h.guard.RequirePermission(service.PermDeleteUsers), h.DeleteUser)
	}
}

// ListUsers handles GET /users
// @Summary      List users
// @Description  Returns one page (10 per page) of users with their roles and direct permissions
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int  false  "Page number"
// @Success      200      {object}  UserPage
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(users, total, p, pagination.RequestPath(c)))
}

// GetUser handles GET /users/{id}
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "User ID"
// @Success      200      {object}  service.UserResponse
// @Failure      404      {object}  response.Response
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /users
// @Summary      Create user
// @Description  Creates a user, hashing the password and attaching the named roles
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  UserMessageResponse
// @Failure      422      {object}  response.Response
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, UserMessageResponse{Message: "User created successfully", User: user})
}

// UpdateUser handles PUT /users/{id}
// @Summary      Update user
// @Description  Updates the given fields. role or roles replaces the user's roles.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Update User Payload"
// @Success      200      {object}  UserMessageResponse
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, UserMessageResponse{Message: "User updated successfully", User: user})
}

// DeleteUser handles DELETE /users/{id}
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "User ID"
// @Success      200      {object}  response.Message
// @Failure      404      {object}  response.Response
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Message{Message: "User deleted successfully"})
}
