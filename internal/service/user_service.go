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

// CreateUserRequest accepts a single role, a list of roles, or both.
type CreateUserRequest struct {
	Name                 string   `json:"name" binding:"required,max=255"`
	Email                string   `json:"email" binding:"required,email,max=255"`
	Password             string   `json:"password" binding:"required,min=8"`
	PasswordConfirmation string   `json:"password_confirmation"`
	Role                 string   `json:"role"`
	Roles                []string `json:"roles"`
}

// UpdateUserRequest leaves nil fields untouched. Role or Roles present syncs the
// user's roles to exactly the named set.
type UpdateUserRequest struct {
	Name                 *string   `json:"name" binding:"omitempty,max=255"`
	Email                *string   `json:"email" binding:"omitempty,email,max=255"`
	Password             *string   `json:"password" binding:"omitempty,min=8"`
	PasswordConfirmation string    `json:"password_confirmation"`
	Role                 *string   `json:"role"`
	Roles                *[]string `json:"roles"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	List(ctx context.Context, p pagination.Params) ([]UserResponse, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repos  repository.Repositories
	hasher PasswordHasher
	events EventPublisher
}

// NewUserService returns a new instance of UserService
func NewUserService(repos repository.Repositories, hasher PasswordHasher, events EventPublisher) UserService {
	return &userService{repos: repos, hasher: hasher, events: publisherOrNop(events)}
}

func (s *userService) List(ctx context.Context, p pagination.Params) ([]UserResponse, int64, error) {
	total, err := s.repos.Users.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	users, err := s.repos.Users.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, 0, err
	}
	return mapUsers(users), total, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	res := mapUser(user)
	return &res, nil
}

// requestedRoles merges the single role and role list fields into one list.
// The single role is reported under "role", list entries under "roles.N".
func requestedRoles(role string, roles []string) (single string, list []string) {
	return strings.TrimSpace(role), cleanNames(roles)
}

func (s *userService) roleIDs(ctx context.Context, single string, list []string) ([]uuid.UUID, error) {
	names := append([]string{}, list...)
	if single != "" {
		names = append(names, single)
	}
	if len(names) == 0 {
		return nil, nil
	}
	roles, err := s.repos.Roles.FindByNames(ctx, model.DefaultGuard, names)
	if err != nil {
		return nil, err
	}
	found := make(map[string]uuid.UUID, len(roles))
	for _, r := range roles {
		found[r.Name] = r.ID
	}

	verr := &ValidationError{}
	ids, err := resolveIDs("roles", list, found)
	if err != nil && !verr.Merge(err) {
		return nil, err
	}
	if single != "" {
		id, ok := found[single]
		if !ok {
			verr.Add("role", "The selected role is invalid.")
		} else {
			ids = appendID(ids, id)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return ids, nil
}

func appendID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	verr := &ValidationError{}
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		verr.Add("name", "The name field is required.")
	}
	if req.Password != req.PasswordConfirmation {
		verr.Add("password", "The password field confirmation does not match.")
	}
	single, list := requestedRoles(req.Role, req.Roles)

	var created *model.User
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		taken, err := s.repos.Users.EmailTaken(txCtx, email, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", "The email has already been taken.")
		}
		roleIDs, err := s.roleIDs(txCtx, single, list)
		if err != nil && !verr.Merge(err) {
			return err
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return err
		}
		user := &model.User{Name: name, Email: email, Password: hashed}
		if err := s.repos.Users.Create(txCtx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return takenError("email")
			}
			return err
		}
		if len(roleIDs) > 0 {
			if err := s.repos.Users.ReplaceRoles(txCtx, user.ID, roleIDs); err != nil {
				return err
			}
		}
		created, err = s.repos.Users.FindByID(txCtx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(newEvent(EventUserCreated, created.ID, created.Name))
	res := mapUser(created)
	return &res, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	syncRoles := req.Role != nil || req.Roles != nil
	var updated *model.User
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repos.Users.FindByID(txCtx, id)
		if err != nil {
			return mapRepoErr(err)
		}

		verr := &ValidationError{}
		if req.Name != nil {
			if name := strings.TrimSpace(*req.Name); name == "" {
				verr.Add("name", "The name field must not be empty.")
			} else {
				user.Name = name
			}
		}
		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			taken, err := s.repos.Users.EmailTaken(txCtx, email, user.ID)
			if err != nil {
				return err
			}
			if taken {
				verr.Add("email", "The email has already been taken.")
			} else if email != user.Email {
				user.Email = email
				user.EmailVerifiedAt = nil
			}
		}
		if req.Password != nil {
			if *req.Password != req.PasswordConfirmation {
				verr.Add("password", "The password field confirmation does not match.")
			} else {
				hashed, err := s.hasher.Hash(*req.Password)
				if err != nil {
					return err
				}
				user.Password = hashed
			}
		}

		var roleIDs []uuid.UUID
		if syncRoles {
			var single string
			var list []string
			if req.Role != nil {
				single = *req.Role
			}
			if req.Roles != nil {
				list = *req.Roles
			}
			single, list = requestedRoles(single, list)
			if roleIDs, err = s.roleIDs(txCtx, single, list); err != nil && !verr.Merge(err) {
				return err
			}
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		if err := s.repos.Users.Update(txCtx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return takenError("email")
			}
			return mapRepoErr(err)
		}
		if syncRoles {
			if err := s.repos.Users.ReplaceRoles(txCtx, user.ID, roleIDs); err != nil {
				return mapRepoErr(err)
			}
		}
		updated, err = s.repos.Users.FindByID(txCtx, user.ID)
		return mapRepoErr(err)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(newEvent(EventUserUpdated, updated.ID, updated.Name))
	if syncRoles {
		s.events.Publish(newEvent(EventUserRolesSynced, updated.ID, updated.Name))
	}
	res := mapUser(updated)
	return &res, nil
}

// Delete removes the user with its role memberships, direct grants and tokens.
func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := s.repos.Users.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.events.Publish(newEvent(EventUserDeleted, user.ID, user.Name))
	return nil
}
