package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "rbac-backend/api/swagger" // swagger docs
	"rbac-backend/internal/authz"
	"rbac-backend/internal/config"
	"rbac-backend/internal/database"
	"rbac-backend/internal/handler"
	"rbac-backend/internal/middleware"
	"rbac-backend/internal/observability"
	"rbac-backend/internal/service"
	"rbac-backend/internal/session"
	"rbac-backend/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, newLogger(cfg))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func authConfig(cfg *config.Config) service.AuthConfig {
	return service.AuthConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.AppName,
		TTL:    cfg.TokenTTL,
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	repos, closeRepos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepos()

	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	if cfg.SeedOnStart || cfg.Database.Driver == config.DriverMemory {
		res, err := service.NewSeeder(repos, hasher, !cfg.IsProduction()).Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		logger.Info("seed complete",
			slog.Int("permissions", res.Permissions),
			slog.Int("roles", res.Roles),
			slog.Int("users", res.Users))
	}

	metrics := observability.NewMetrics()
	var auditHook authz.Hook
	if cfg.AuthzAuditLog {
		auditHook = authz.LogHook(logger.With(slog.String("component", "authz")))
	}
	authorizer := authz.NewAuthorizer(authz.Chain(auditHook, authz.MetricsHook(metrics.Registerer())))

	hub := websocket.NewHub(logger)

	authService, err := service.NewAuthService(repos, hasher, authConfig(cfg))
	if err != nil {
		return err
	}
	services := handler.Services{
		Auth:        authService,
		Users:       service.NewUserService(repos, hasher, hub),
		Roles:       service.NewRoleService(repos, hub),
		Permissions: service.NewPermissionService(repos, hub),
		Dashboard:   service.NewDashboardService(repos),
	}

	var (
		sessions *session.Manager
		csrf     *session.CSRFManager
	)
	if cfg.SessionsEnabled() {
		rdb, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessions = session.NewManager(rdb, session.Options{
			CookieName: cfg.SessionCookie,
			TTL:        cfg.SessionTTL,
			Secure:     cfg.IsProduction(),
			SameSite:   http.SameSiteLaxMode,
		})
		csrf = session.NewCSRFManager(cfg.CSRFSecret)
		logger.Info("browser sessions enabled", slog.String("redis", cfg.RedisAddr))
	} else {
		logger.Info("REDIS_ADDR not set, browser sessions disabled")
	}

	router := handler.NewRouter(handler.RouterConfig{
		Services:       services,
		Guard:          middleware.NewGuard(authService, csrf, authorizer, logger),
		Sessions:       sessions,
		CSRF:           csrf,
		Metrics:        metrics,
		Hub:            hub,
		AllowedOrigins: cfg.CORSOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		Production:     cfg.IsProduction(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
