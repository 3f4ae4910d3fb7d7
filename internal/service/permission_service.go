package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
	"rbac-backend/pkg/pagination"
)

type CreatePermissionRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type UpdatePermissionRequest struct {
	Name *string `json:"name" binding:"omitempty,max=255"`
}

// PermissionService defines the business logic for Permission CRUD
type PermissionService interface {
	List(ctx context.Context, p pagination.Params) ([]PermissionResponse, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*PermissionResponse, error)
	Create(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdatePermissionRequest) (*PermissionResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type permissionService struct {
	repos  repository.Repositories
	events EventPublisher
}

// NewPermissionService returns a new instance of PermissionService
func NewPermissionService(repos repository.Repositories, events EventPublisher) PermissionService {
	return &permissionService{repos: repos, events: publisherOrNop(events)}
}

func (s *permissionService) List(ctx context.Context, p pagination.Params) ([]PermissionResponse, int64, error) {
	total, err := s.repos.Permissions.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	perms, err := s.repos.Permissions.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, 0, err
	}
	return mapPermissions(perms), total, nil
}

func (s *permissionService) Get(ctx context.Context, id uuid.UUID) (*PermissionResponse, error) {
	perm, err := s.repos.Permissions.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	res := mapPermission(*perm)
	return &res, nil
}

func (s *permissionService) Create(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fieldError("name", "The name field is required.")
	}
	taken, err := s.repos.Permissions.NameTaken(ctx, model.DefaultGuard, name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, takenError("name")
	}

	perm := &model.Permission{Name: name, GuardName: model.DefaultGuard}
	if err := s.repos.Permissions.Create(ctx, perm); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, takenError("name")
		}
		return nil, err
	}
	s.events.Publish(newEvent(EventPermissionCreated, perm.ID, perm.Name))
	res := mapPermission(*perm)
	return &res, nil
}

func (s *permissionService) Update(ctx context.Context, id uuid.UUID, req UpdatePermissionRequest) (*PermissionResponse, error) {
	perm, err := s.repos.Permissions.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fieldError("name", "The name field must not be empty.")
		}
		taken, err := s.repos.Permissions.NameTaken(ctx, perm.GuardName, name, perm.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, takenError("name")
		}
		perm.Name = name
	}
	if err := s.repos.Permissions.Update(ctx, perm); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, takenError("name")
		}
		return nil, mapRepoErr(err)
	}
	s.events.Publish(newEvent(EventPermissionUpdated, perm.ID, perm.Name))
	res := mapPermission(*perm)
	return &res, nil
}

// Delete removes the permission from every role and user that held it.
func (s *permissionService) Delete(ctx context.Context, id uuid.UUID) error {
	perm, err := s.repos.Permissions.FindByID(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := s.repos.Permissions.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.events.Publish(newEvent(EventPermissionDeleted, perm.ID, perm.Name))
	return nil
}
