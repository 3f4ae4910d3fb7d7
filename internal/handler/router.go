package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"rbac-backend/internal/middleware"
	"rbac-backend/internal/observability"
	"rbac-backend/internal/service"
	"rbac-backend/internal/session"
	"rbac-backend/internal/websocket"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth        service.AuthService
	Users       service.UserService
	Roles       service.RoleService
	Permissions service.PermissionService
	Dashboard   service.DashboardService
}

// RouterConfig carries everything NewRouter wires. Sessions, CSRF, Metrics
// and Hub are optional.
type RouterConfig struct {
	Services       Services
	Guard          *middleware.Guard
	Sessions       *session.Manager
	CSRF           *session.CSRFManager
	Metrics        *observability.Metrics
	Hub            *websocket.Hub
	AllowedOrigins []string
	LoginRateLimit int
	Production     bool
	Logger         *slog.Logger
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cfg.Metrics.Middleware())
	router.Use(middleware.SecureHeaders(cfg.Production, logger))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "OK"})
	})
	router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Hub != nil {
		router.GET("/ws", websocket.Handler(cfg.Hub, cfg.Services.Auth, cfg.AllowedOrigins))
	}

	api := router.Group("")
	api.Use(middleware.LoadSession(cfg.Sessions, logger))

	NewAuthHandler(cfg.Services.Auth, cfg.Sessions, cfg.CSRF, cfg.Guard, cfg.LoginRateLimit, logger).RegisterRoutes(api)
	NewDashboardHandler(cfg.Services.Dashboard, cfg.Guard, logger).RegisterRoutes(api)
	NewUserHandler(cfg.Services.Users, cfg.Guard, logger).RegisterRoutes(api)
	NewRoleHandler(cfg.Services.Roles, cfg.Guard, logger).RegisterRoutes(api)
	NewPermissionHandler(cfg.Services.Permissions, cfg.Guard, logger).RegisterRoutes(api)

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	c.AllowCredentials = true
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept",
		"X-Requested-With", session.CSRFHeader, session.XSRFHeader}
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.MaxAge = 12 * time.Hour
	return c
}
