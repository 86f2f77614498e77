// Package session turns identity provider state into the session snapshot
// the guard and pages consume.
package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
)

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	UserID string
	Email  string
}

type pendingRole struct {
	role  auth.Role
	since time.Time
}

// Resolver holds the role state of one browser session.
//
// The first observation for a user is applied immediately. After that a
// different role is only held as pending, and the snapshot reports Loading
// until the same role is observed again once the settle window has passed.
// Observing the settled role again drops the pending role.
type Resolver struct {
	mu     sync.Mutex
	clock  clock.Clock
	settle time.Duration

	resolved bool
	user     *Identity
	role     auth.Role
	pending  *pendingRole
}

// NewResolver creates a resolver that has not observed anything yet; its
// snapshot is Loading.
func NewResolver(clk clock.Clock, settle time.Duration) *Resolver {
	if clk == nil {
		clk = clock.New()
	}
	return &Resolver{clock: clk, settle: settle}
}

// Observe records the outcome of a claims resolution. A nil identity means
// the user signed out.
func (r *Resolver) Observe(id *Identity, role auth.Role) auth.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !role.Valid() {
		role = auth.RoleNone
	}
	now := r.clock.Now()

	switch {
	case id == nil:
		r.user = nil
		r.role = auth.RoleNone
		r.pending = nil
	case !r.resolved || r.user == nil || r.user.UserID != id.UserID:
		u := *id
		r.user = &u
		r.role = role
		r.pending = nil
	case role == r.role:
		r.user.Email = id.Email
		r.pending = nil
	case r.pending != nil && r.pending.role == role && now.Sub(r.pending.since) >= r.settle:
		r.user.Email = id.Email
		r.role = role
		r.pending = nil
	case r.pending == nil || r.pending.role != role:
		r.pending = &pendingRole{role: role, since: now}
	}
	r.resolved = true

	return r.snapshot()
}

// Snapshot returns the current session view.
func (r *Resolver) Snapshot() auth.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Settled returns the last settled role.
func (r *Resolver) Settled() auth.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.role
}

// PendingDue reports whether a pending role has waited out the settle window
// and should be confirmed by another resolution.
func (r *Resolver) PendingDue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil && r.clock.Now().Sub(r.pending.since) >= r.settle
}

func (r *Resolver) snapshot() auth.Session {
	if !r.resolved {
		return auth.Session{Loading: true}
	}
	if r.user == nil {
		return auth.Anonymous()
	}
	return auth.Session{
		UserID:  r.user.UserID,
		Email:   r.user.Email,
		Role:    r.role,
		Loading: r.pending != nil,
	}
}
