package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rbac-backend/internal/config"
	"rbac-backend/internal/database"
	"rbac-backend/internal/repository"
	"rbac-backend/internal/repository/memory"
)

var rootCmd = &cobra.Command{
	Use:           "rbac-api",
	Short:         "Role-based access control API",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h).With(slog.String("app", cfg.AppName), slog.String("env", cfg.AppEnv))
}

// openRepositories connects the configured storage driver. The returned
// close func releases it.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Repositories, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		return memory.NewStore().Repositories(), func() {}, nil
	}

	db, err := database.NewConnection(cfg.Database.DSN(), logger)
	if err != nil {
		return repository.Repositories{}, nil, fmt.Errorf("database connection failed: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db.WithContext(ctx)); err != nil {
			closeDB()
			return repository.Repositories{}, nil, fmt.Errorf("auto migrate failed: %w", err)
		}
	}
	logger.Info("connected to PostgreSQL")
	return repository.NewGormRepositories(db), closeDB, nil
}
