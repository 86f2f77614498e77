package auth

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var casbinModelContent string

// RouteEnforcer answers "may this role open this route" from an in-memory
// casbin policy. Subjects are roles, objects are route patterns.
type RouteEnforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewRouteEnforcer creates an enforcer with the embedded model and no policies.
func NewRouteEnforcer() (*RouteEnforcer, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	return &RouteEnforcer{enforcer: enforcer}, nil
}

// Grant allows role on route.
func (e *RouteEnforcer) Grant(role Role, route string) error {
	if !role.Valid() {
		return fmt.Errorf("cannot grant %q: unknown role", role)
	}
	if _, err := e.enforcer.AddPolicy(string(role), route); err != nil {
		return fmt.Errorf("add policy %s -> %s: %w", role, route, err)
	}
	return nil
}

// Allowed reports whether role may open route. RoleNone is never allowed.
func (e *RouteEnforcer) Allowed(role Role, route string) (bool, error) {
	if role == RoleNone {
		return false, nil
	}
	ok, err := e.enforcer.Enforce(string(role), route)
	if err != nil {
		return false, fmt.Errorf("enforce %s -> %s: %w", role, route, err)
	}
	return ok, nil
}
