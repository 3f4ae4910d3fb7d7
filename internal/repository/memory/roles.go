package memory

import (
	"context"

	"github.com/google/uuid"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
)

type roleRepo struct {
	s *Store
}

func (r *roleRepo) nameTaken(guard, name string, exclude uuid.UUID) bool {
	for id, role := range r.s.data.roles {
		if id != exclude && role.GuardName == guard && role.Name == name {
			return true
		}
	}
	return false
}

func (r *roleRepo) Create(_ context.Context, role *model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if role.GuardName == "" {
		role.GuardName = model.DefaultGuard
	}
	if r.nameTaken(role.GuardName, role.Name, uuid.Nil) {
		return repository.ErrDuplicate
	}
	r.s.ensureID(&role.ID)
	now := r.s.now()
	role.CreatedAt, role.UpdatedAt = now, now
	row := *role
	row.Permissions = nil
	r.s.data.roles[role.ID] = row
	r.s.data.roleOrder = append(r.s.data.roleOrder, role.ID)
	return nil
}

func (r *roleRepo) Update(_ context.Context, role *model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.roles[role.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(role.GuardName, role.Name, role.ID) {
		return repository.ErrDuplicate
	}
	role.CreatedAt = existing.CreatedAt
	role.UpdatedAt = r.s.now()
	row := *role
	row.Permissions = nil
	r.s.data.roles[role.ID] = row
	return nil
}

func (r *roleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.roles, id)
	delete(r.s.data.rolePerms, id)
	for uid, roles := range r.s.data.userRoles {
		r.s.data.userRoles[uid] = removeID(roles, id)
	}
	r.s.data.roleOrder = removeID(r.s.data.roleOrder, id)
	return nil
}

func (r *roleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.data.roles[id]; !ok {
		return nil, repository.ErrNotFound
	}
	role := r.s.hydrateRole(id, true)
	return &role, nil
}

func (r *roleRepo) FindByNames(_ context.Context, guard string, names []string) ([]model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []model.Role
	for _, id := range r.s.data.roleOrder {
		role := r.s.data.roles[id]
		if _, ok := want[role.Name]; ok && role.GuardName == guard {
			out = append(out, r.s.hydrateRole(id, false))
		}
	}
	return out, nil
}

func (r *roleRepo) NameTaken(_ context.Context, guard, name string, exclude uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.nameTaken(guard, name, exclude), nil
}

func (r *roleRepo) List(_ context.Context, offset, limit int) ([]model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := page(r.s.data.roleOrder, offset, limit)
	out := make([]model.Role, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.hydrateRole(id, true))
	}
	return out, nil
}

func (r *roleRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.data.roles)), nil
}

func (r *roleRepo) ReplacePermissions(_ context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.roles[roleID]; !ok {
		return repository.ErrNotFound
	}
	var kept []uuid.UUID
	for _, id := range permissionIDs {
		if _, ok := r.s.data.perms[id]; ok {
			kept = appendUnique(kept, id)
		}
	}
	r.s.data.rolePerms[roleID] = kept
	return nil
}
