package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
)

type tokenRepo struct {
	s *Store
}

func (r *tokenRepo) Create(_ context.Context, token *model.AccessToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[token.UserID]; !ok {
		return repository.ErrNotFound
	}
	r.s.ensureID(&token.ID)
	if _, dup := r.s.data.tokens[token.ID]; dup {
		return repository.ErrDuplicate
	}
	token.CreatedAt = r.s.now()
	row := *token
	row.User = model.User{}
	r.s.data.tokens[token.ID] = row
	return nil
}

func (r *tokenRepo) FindByID(_ context.Context, id uuid.UUID) (*model.AccessToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.data.tokens[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *tokenRepo) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tokens[id]
	if !ok {
		return nil
	}
	t.LastUsedAt = &at
	r.s.data.tokens[id] = t
	return nil
}

func (r *tokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.tokens[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.tokens, id)
	return nil
}

func (r *tokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.data.tokens {
		if t.ExpiresAt != nil && !t.ExpiresAt.After(before) {
			delete(r.s.data.tokens, id)
			n++
		}
	}
	return n, nil
}
