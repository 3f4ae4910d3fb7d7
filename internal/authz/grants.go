// Package authz answers role and permission questions about a user.
//
// A Grants value is a snapshot of one freshly loaded user. It is meant to live
// for a single request; nothing in this package caches grants across requests.
package authz

import (
	"sort"
	"strings"

	"rbac-backend/internal/model"
)

type roleGrant struct {
	name string
	rank int
}

// Grants is the effective authorization state of a user: the roles it holds
// and the union of permissions reachable through those roles and direct grants.
type Grants struct {
	subject string
	roles   []roleGrant
	perms   map[string]struct{}
}

// FromUser builds grants from a user loaded with Roles.Permissions and Permissions.
func FromUser(u *model.User) Grants {
	if u == nil {
		return Grants{}
	}
	g := Grants{
		subject: u.ID.String(),
		roles:   make([]roleGrant, 0, len(u.Roles)),
		perms:   make(map[string]struct{}),
	}
	for _, r := range u.Roles {
		g.roles = append(g.roles, roleGrant{name: r.Name, rank: r.Rank})
	}
	for _, p := range EffectivePermissions(u) {
		g.perms[p.Name] = struct{}{}
	}
	return g
}

// EffectivePermissions returns the union of the user's role permissions and
// direct permissions, deduplicated by ID and sorted by name.
func EffectivePermissions(u *model.User) []model.Permission {
	if u == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []model.Permission
	add := func(p model.Permission) {
		key := p.ID.String() + "|" + p.Name
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			add(p)
		}
	}
	for _, p := range u.Permissions {
		add(p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subject is the ID of the user the grants were built from.
func (g Grants) Subject() string {
	return g.subject
}

// HasRole reports whether the user holds the named role. Unknown names are false.
func (g Grants) HasRole(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, r := range g.roles {
		if r.name == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether name is in the effective permission set.
func (g Grants) HasPermission(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	_, ok := g.perms[name]
	return ok
}

// HasAnyPermission is true when at least one of names is granted.
// An empty list is never satisfied.
func (g Grants) HasAnyPermission(names ...string) bool {
	for _, n := range names {
		if g.HasPermission(n) {
			return true
		}
	}
	return false
}

// HasAllPermissions is true when every one of names is granted.
// An empty list is never satisfied.
func (g Grants) HasAllPermissions(names ...string) bool {
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if !g.HasPermission(n) {
			return false
		}
	}
	return true
}

// Permissions returns the effective permission set sorted by name.
func (g Grants) Permissions() []string {
	out := make([]string, 0, len(g.perms))
	for p := range g.perms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Roles returns the names of the held roles, primary role first.
func (g Grants) Roles() []string {
	ranked := g.ranked()
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.name)
	}
	return out
}

// PrimaryRole is the held role with the highest rank, ties going to the
// alphabetically first name. It is "" for a user without roles.
func (g Grants) PrimaryRole() string {
	ranked := g.ranked()
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].name
}

func (g Grants) ranked() []roleGrant {
	out := make([]roleGrant, len(g.roles))
	copy(out, g.roles)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].rank != out[j].rank {
			return out[i].rank > out[j].rank
		}
		return out[i].name < out[j].name
	})
	return out
}
