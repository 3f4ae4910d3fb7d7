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

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Rank        *int     `json:"rank" binding:"omitempty,min=0"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleRequest leaves nil fields untouched. A non-nil Permissions replaces
// the role's whole permission set; an empty list clears it.
type UpdateRoleRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=255"`
	Rank        *int      `json:"rank" binding:"omitempty,min=0"`
	Permissions *[]string `json:"permissions"`
}

// RoleService defines the business logic for Role CRUD and permission sync
type RoleService interface {
	List(ctx context.Context, p pagination.Params) ([]RoleResponse, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*RoleResponse, error)
	Create(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type roleService struct {
	repos  repository.Repositories
	events EventPublisher
}

// NewRoleService returns a new instance of RoleService
func NewRoleService(repos repository.Repositories, events EventPublisher) RoleService {
	return &roleService{repos: repos, events: publisherOrNop(events)}
}

func (s *roleService) List(ctx context.Context, p pagination.Params) ([]RoleResponse, int64, error) {
	total, err := s.repos.Roles.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	roles, err := s.repos.Roles.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, 0, err
	}
	return mapRoles(roles), total, nil
}

func (s *roleService) Get(ctx context.Context, id uuid.UUID) (*RoleResponse, error) {
	role, err := s.repos.Roles.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	res := mapRole(*role)
	return &res, nil
}

// permissionIDs resolves names against the role's guard. Any unknown name
// fails the whole request.
func (s *roleService) permissionIDs(ctx context.Context, guard string, names []string) ([]uuid.UUID, error) {
	if len(names) == 0 {
		return nil, nil
	}
	names = cleanNames(names)
	perms, err := s.repos.Permissions.FindByNames(ctx, guard, names)
	if err != nil {
		return nil, err
	}
	found := make(map[string]uuid.UUID, len(perms))
	for _, p := range perms {
		found[p.Name] = p.ID
	}
	return resolveIDs("permissions", names, found)
}

func (s *roleService) Create(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fieldError("name", "The name field is required.")
	}

	var created *model.Role
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		verr := &ValidationError{}
		taken, err := s.repos.Roles.NameTaken(txCtx, model.DefaultGuard, name, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("name", "The name has already been taken.")
		}
		permIDs, err := s.permissionIDs(txCtx, model.DefaultGuard, req.Permissions)
		if err != nil {
			if !verr.Merge(err) {
				return err
			}
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		role := &model.Role{Name: name, GuardName: model.DefaultGuard}
		if req.Rank != nil {
			role.Rank = *req.Rank
		}
		if err := s.repos.Roles.Create(txCtx, role); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return takenError("name")
			}
			return err
		}
		if len(permIDs) > 0 {
			if err := s.repos.Roles.ReplacePermissions(txCtx, role.ID, permIDs); err != nil {
				return err
			}
		}
		created, err = s.repos.Roles.FindByID(txCtx, role.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(newEvent(EventRoleCreated, created.ID, created.Name))
	res := mapRole(*created)
	return &res, nil
}

// Update applies name and rank changes and, when Permissions is present,
// syncs the permission set. Concurrent syncs of the same role are
// last-writer-wins: each runs in its own transaction, no version check.
func (s *roleService) Update(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error) {
	var (
		updated *model.Role
		synced  bool
	)
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.repos.Roles.FindByID(txCtx, id)
		if err != nil {
			return mapRepoErr(err)
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fieldError("name", "The name field must not be empty.")
			}
			taken, err := s.repos.Roles.NameTaken(txCtx, role.GuardName, name, role.ID)
			if err != nil {
				return err
			}
			if taken {
				return takenError("name")
			}
			role.Name = name
		}
		if req.Rank != nil {
			role.Rank = *req.Rank
		}

		var permIDs []uuid.UUID
		if req.Permissions != nil {
			if permIDs, err = s.permissionIDs(txCtx, role.GuardName, *req.Permissions); err != nil {
				return err
			}
		}

		if err := s.repos.Roles.Update(txCtx, role); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return takenError("name")
			}
			return mapRepoErr(err)
		}
		if req.Permissions != nil {
			if err := s.repos.Roles.ReplacePermissions(txCtx, role.ID, permIDs); err != nil {
				return mapRepoErr(err)
			}
			synced = true
		}
		updated, err = s.repos.Roles.FindByID(txCtx, role.ID)
		return mapRepoErr(err)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(newEvent(EventRoleUpdated, updated.ID, updated.Name))
	if synced {
		s.events.Publish(newEvent(EventRolePermissionsSynced, updated.ID, updated.Name))
	}
	res := mapRole(*updated)
	return &res, nil
}

// Delete removes the role, its permission grants and its user memberships.
func (s *roleService) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.repos.Roles.FindByID(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := s.repos.Roles.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.events.Publish(newEvent(EventRoleDeleted, role.ID, role.Name))
	return nil
}
