package authz

import "context"

// Kind names the check that produced a Decision.
type Kind string

const (
	KindRole           Kind = "role"
	KindPermission     Kind = "permission"
	KindAnyPermission  Kind = "any_permission"
	KindAllPermissions Kind = "all_permissions"
)

// Decision is emitted to the Hook after every check made through an Authorizer.
type Decision struct {
	Subject string
	Kind    Kind
	Names   []string
	Allowed bool
	Roles   []string
}

// Hook observes authorization decisions. It must not block.
type Hook func(ctx context.Context, d Decision)

// Authorizer runs checks against Grants and reports each outcome to its hook.
// A nil hook disables reporting.
type Authorizer struct {
	hook Hook
}

// NewAuthorizer returns an Authorizer reporting to hook.
func NewAuthorizer(hook Hook) *Authorizer {
	return &Authorizer{hook: hook}
}

func (a *Authorizer) HasRole(ctx context.Context, g Grants, name string) bool {
	return a.report(ctx, g, KindRole, []string{name}, g.HasRole(name))
}

func (a *Authorizer) HasPermission(ctx context.Context, g Grants, name string) bool {
	return a.report(ctx, g, KindPermission, []string{name}, g.HasPermission(name))
}

func (a *Authorizer) HasAnyPermission(ctx context.Context, g Grants, names ...string) bool {
	return a.report(ctx, g, KindAnyPermission, names, g.HasAnyPermission(names...))
}

func (a *Authorizer) HasAllPermissions(ctx context.Context, g Grants, names ...string) bool {
	return a.report(ctx, g, KindAllPermissions, names, g.HasAllPermissions(names...))
}

func (a *Authorizer) report(ctx context.Context, g Grants, kind Kind, names []string, allowed bool) bool {
	if a == nil || a.hook == nil {
		return allowed
	}
	a.hook(ctx, Decision{
		Subject: g.Subject(),
		Kind:    kind,
		Names:   names,
		Allowed: allowed,
		Roles:   g.Roles(),
	})
	return allowed
}
