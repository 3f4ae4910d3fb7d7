package memory

import (
	"context"

	"github.com/google/uuid"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) emailTaken(email string, exclude uuid.UUID) bool {
	for id, u := range r.s.data.users {
		if id != exclude && u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(user.Email, uuid.Nil) {
		return repository.ErrDuplicate
	}
	r.s.ensureID(&user.ID)
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	row := *user
	row.Roles, row.Permissions = nil, nil
	r.s.data.users[user.ID] = row
	r.s.data.userOrder = append(r.s.data.userOrder, user.ID)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.s.now()
	row := *user
	row.Roles, row.Permissions = nil, nil
	r.s.data.users[user.ID] = row
	return nil
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.users, id)
	delete(r.s.data.userRoles, id)
	delete(r.s.data.userPerms, id)
	for tid, t := range r.s.data.tokens {
		if t.UserID == id {
			delete(r.s.data.tokens, tid)
		}
	}
	r.s.data.userOrder = removeID(r.s.data.userOrder, id)
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.data.users[id]; !ok {
		return nil, repository.ErrNotFound
	}
	u := r.s.hydrateUser(id, true)
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for id, u := range r.s.data.users {
		if u.Email == email {
			hydrated := r.s.hydrateUser(id, true)
			return &hydrated, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) EmailTaken(_ context.Context, email string, exclude uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.emailTaken(email, exclude), nil
}

func (r *userRepo) List(_ context.Context, offset, limit int) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := page(r.s.data.userOrder, offset, limit)
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.hydrateUser(id, false))
	}
	return out, nil
}

func (r *userRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.data.users)), nil
}

func (r *userRepo) Recent(_ context.Context, n int) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.User, 0, n)
	for i := len(r.s.data.userOrder) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.s.hydrateUser(r.s.data.userOrder[i], false))
	}
	return out, nil
}

func (r *userRepo) ReplaceRoles(_ context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[userID]; !ok {
		return repository.ErrNotFound
	}
	var kept []uuid.UUID
	for _, id := range roleIDs {
		if _, ok := r.s.data.roles[id]; ok {
			kept = appendUnique(kept, id)
		}
	}
	r.s.data.userRoles[userID] = kept
	return nil
}
