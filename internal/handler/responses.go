package handler

import (
	"rbac-backend/internal/service"
	"rbac-backend/pkg/pagination"
)

// Response bodies, named so the API docs can describe them.

type UserMessageResponse struct {
	Message string                `json:"message"`
	User    *service.UserResponse `json:"user"`
}

type RoleMessageResponse struct {
	Message string                `json:"message"`
	Role    *service.RoleResponse `json:"role"`
}

type PermissionMessageResponse struct {
	Message    string                      `json:"message"`
	Permission *service.PermissionResponse `json:"permission"`
}

type CSRFTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type UserPage = pagination.Page[service.UserResponse]
type RolePage = pagination.Page[service.RoleResponse]
type PermissionPage = pagination.Page[service.PermissionResponse]
