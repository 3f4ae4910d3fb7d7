package memory

import (
	"context"

	"github.com/google/uuid"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
)

type permissionRepo struct {
	s *Store
}

func (r *permissionRepo) nameTaken(guard, name string, exclude uuid.UUID) bool {
	for id, p := range r.s.data.perms {
		if id != exclude && p.GuardName == guard && p.Name == name {
			return true
		}
	}
	return false
}

func (r *permissionRepo) Create(_ context.Context, perm *model.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if perm.GuardName == "" {
		perm.GuardName = model.DefaultGuard
	}
	if r.nameTaken(perm.GuardName, perm.Name, uuid.Nil) {
		return repository.ErrDuplicate
	}
	r.s.ensureID(&perm.ID)
	now := r.s.now()
	perm.CreatedAt, perm.UpdatedAt = now, now
	r.s.data.perms[perm.ID] = *perm
	r.s.data.permOrder = append(r.s.data.permOrder, perm.ID)
	return nil
}

func (r *permissionRepo) Update(_ context.Context, perm *model.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.perms[perm.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(perm.GuardName, perm.Name, perm.ID) {
		return repository.ErrDuplicate
	}
	perm.CreatedAt = existing.CreatedAt
	perm.UpdatedAt = r.s.now()
	r.s.data.perms[perm.ID] = *perm
	return nil
}

func (r *permissionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.perms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.perms, id)
	for rid, perms := range r.s.data.rolePerms {
		r.s.data.rolePerms[rid] = removeID(perms, id)
	}
	for uid, perms := range r.s.data.userPerms {
		r.s.data.userPerms[uid] = removeID(perms, id)
	}
	r.s.data.permOrder = removeID(r.s.data.permOrder, id)
	return nil
}

func (r *permissionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.data.perms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *permissionRepo) FindByNames(_ context.Context, guard string, names []string) ([]model.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []model.Permission
	for _, id := range r.s.data.permOrder {
		p := r.s.data.perms[id]
		if _, ok := want[p.Name]; ok && p.GuardName == guard {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *permissionRepo) NameTaken(_ context.Context, guard, name string, exclude uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.nameTaken(guard, name, exclude), nil
}

func (r *permissionRepo) List(_ context.Context, offset, limit int) ([]model.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := page(r.s.data.permOrder, offset, limit)
	out := make([]model.Permission, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.data.perms[id])
	}
	return out, nil
}

func (r *permissionRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.data.perms)), nil
}
