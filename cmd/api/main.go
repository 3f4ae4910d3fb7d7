package main

import (
	"context"
	"os"
)

// @title           RBAC API
// @version         1.0
// @description     Users, roles and permissions with bearer token and session authentication.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
