// Package memory is an in-process storage driver implementing every
// repository interface. It backs DB_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
)

// Store holds all rows and join tables. Rows are stored without associations
// and hydrated on read, so callers never share memory with the store.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	now  func() time.Time

	data tables
}

type tables struct {
	users  map[uuid.UUID]model.User
	roles  map[uuid.UUID]model.Role
	perms  map[uuid.UUID]model.Permission
	tokens map[uuid.UUID]model.AccessToken

	userOrder []uuid.UUID
	roleOrder []uuid.UUID
	permOrder []uuid.UUID

	userRoles map[uuid.UUID][]uuid.UUID
	userPerms map[uuid.UUID][]uuid.UUID
	rolePerms map[uuid.UUID][]uuid.UUID
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now: time.Now,
		data: tables{
			users:     make(map[uuid.UUID]model.User),
			roles:     make(map[uuid.UUID]model.Role),
			perms:     make(map[uuid.UUID]model.Permission),
			tokens:    make(map[uuid.UUID]model.AccessToken),
			userRoles: make(map[uuid.UUID][]uuid.UUID),
			userPerms: make(map[uuid.UUID][]uuid.UUID),
			rolePerms: make(map[uuid.UUID][]uuid.UUID),
		},
	}
}

// Repositories returns the store's repositories and transaction manager.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:        &userRepo{s: s},
		Roles:        &roleRepo{s: s},
		Permissions:  &permissionRepo{s: s},
		AccessTokens: &tokenRepo{s: s},
		Tx:           &txManager{s: s},
	}
}

// GrantPermissions attaches direct permissions to a user. The HTTP API never
// grants directly; this exists for seeding and tests.
func (s *Store) GrantPermissions(userID uuid.UUID, permIDs ...uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.userPerms[userID] = appendUnique(s.data.userPerms[userID], permIDs...)
}

type txManager struct {
	s *Store
}

// RunInTx serializes transactions and rolls the whole store back when fn fails.
// Writes made outside a transaction while one is running are rolled back too.
func (t *txManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.RLock()
	snapshot := t.s.data.clone()
	t.s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.s.mu.Lock()
		t.s.data = snapshot
		t.s.mu.Unlock()
		return err
	}
	return nil
}

type txKey struct{}

func (d tables) clone() tables {
	out := tables{
		users:     make(map[uuid.UUID]model.User, len(d.users)),
		roles:     make(map[uuid.UUID]model.Role, len(d.roles)),
		perms:     make(map[uuid.UUID]model.Permission, len(d.perms)),
		tokens:    make(map[uuid.UUID]model.AccessToken, len(d.tokens)),
		userOrder: append([]uuid.UUID(nil), d.userOrder...),
		roleOrder: append([]uuid.UUID(nil), d.roleOrder...),
		permOrder: append([]uuid.UUID(nil), d.permOrder...),
		userRoles: cloneJoin(d.userRoles),
		userPerms: cloneJoin(d.userPerms),
		rolePerms: cloneJoin(d.rolePerms),
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.roles {
		out.roles[k] = v
	}
	for k, v := range d.perms {
		out.perms[k] = v
	}
	for k, v := range d.tokens {
		out.tokens[k] = v
	}
	return out
}

func cloneJoin(in map[uuid.UUID][]uuid.UUID) map[uuid.UUID][]uuid.UUID {
	out := make(map[uuid.UUID][]uuid.UUID, len(in))
	for k, v := range in {
		out[k] = append([]uuid.UUID(nil), v...)
	}
	return out
}

func appendUnique(list []uuid.UUID, ids ...uuid.UUID) []uuid.UUID {
	for _, id := range ids {
		found := false
		for _, existing := range list {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			list = append(list, id)
		}
	}
	return list
}

func removeID(list []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func page(ids []uuid.UUID, offset, limit int) []uuid.UUID {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return nil
	}
	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return ids[offset:end]
}

func (s *Store) ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// hydrateRole must be called with s.mu held.
func (s *Store) hydrateRole(id uuid.UUID, withPerms bool) model.Role {
	r := s.data.roles[id]
	if !withPerms {
		r.Permissions = nil
		return r
	}
	r.Permissions = make([]model.Permission, 0, len(s.data.rolePerms[id]))
	for _, pid := range s.data.rolePerms[id] {
		r.Permissions = append(r.Permissions, s.data.perms[pid])
	}
	return r
}

// hydrateUser must be called with s.mu held.
func (s *Store) hydrateUser(id uuid.UUID, withRolePerms bool) model.User {
	u := s.data.users[id]
	u.Roles = make([]model.Role, 0, len(s.data.userRoles[id]))
	for _, rid := range s.data.userRoles[id] {
		u.Roles = append(u.Roles, s.hydrateRole(rid, withRolePerms))
	}
	u.Permissions = make([]model.Permission, 0, len(s.data.userPerms[id]))
	for _, pid := range s.data.userPerms[id] {
		u.Permissions = append(u.Permissions, s.data.perms[pid])
	}
	return u
}
