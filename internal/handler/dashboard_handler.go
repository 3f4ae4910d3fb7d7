package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rbac-backend/internal/middleware"
	"rbac-backend/internal/service"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	guard            *middleware.Guard
	logger           *slog.Logger
}

func NewDashboardHandler(dashboardService service.DashboardService, guard *middleware.Guard, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, guard: guard, logger: logger}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := router.Group("")
	authed.Use(h.guard.Authenticate())
	{
		authed.GET("/dashboard", h.Dashboard)
		authed.GET("/profile", h.Profile)
	}
}

// Dashboard handles GET /dashboard
// @Summary      Dashboard
// @Description  Statistics scoped by the caller's primary role
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  service.DashboardResponse
// @Failure      401      {object}  response.Response
// @Router       /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	res, err := h.dashboardService.Dashboard(c.Request.Context(), principal.User)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Profile handles GET /profile
// @Summary      Profile
// @Description  The caller with roles and direct permissions
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  service.UserResponse
// @Failure      401      {object}  response.Response
// @Router       /profile [get]
func (h *DashboardHandler) Profile(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	c.JSON(http.StatusOK, service.Profile(principal.User))
}
