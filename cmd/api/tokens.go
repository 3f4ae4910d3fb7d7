package main

import (
	"github.com/spf13/cobra"

	"rbac-backend/internal/config"
	"rbac-backend/internal/service"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage issued access tokens",
}

var tokensPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired access tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		repos, closeRepos, err := openRepositories(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeRepos()

		auth, err := service.NewAuthService(repos, service.NewBcryptHasher(cfg.BcryptCost), authConfig(cfg))
		if err != nil {
			return err
		}
		n, err := auth.PruneExpired(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("pruned %d expired tokens\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.AddCommand(tokensPruneCmd)
}
