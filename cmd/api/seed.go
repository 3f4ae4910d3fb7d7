package main

import (
	"github.com/spf13/cobra"

	"rbac-backend/internal/config"
	"rbac-backend/internal/service"
)

var seedDemoUsers bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default permissions, roles and demo accounts",
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

		res, err := service.NewSeeder(repos, service.NewBcryptHasher(cfg.BcryptCost), seedDemoUsers).Seed(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("seeded %d permissions, %d roles, %d users\n", res.Permissions, res.Roles, res.Users)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedDemoUsers, "demo-users", true, "also create the demo accounts")
}
