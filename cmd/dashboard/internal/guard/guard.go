// Package guard decides, for every page request, whether the current session
// may see the page, must wait for its role to settle, or is redirected.
package guard

import (
	"fmt"
	"strings"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
)

// RouteDescriptor declares which roles may open a page. A descriptor with no
// roles is public.
type RouteDescriptor struct {
	Path         string
	Title        string
	AllowedRoles []auth.Role
	// Nav marks entries shown in the dashboard navigation.
	Nav bool
}

// Public reports whether the route needs no role.
func (d RouteDescriptor) Public() bool {
	return len(d.AllowedRoles) == 0
}

// Action is the outcome of evaluating a request.
type Action int

const (
	Allow Action = iota
	// Pending means the session's role is not settled; render a neutral
	// loading state and evaluate again later.
	Pending
	Redirect
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Pending:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is returned by Evaluate. Target is set for redirects only.
type Decision struct {
	Action Action
	Target string
}

// Guard evaluates requests against an ordered route table.
type Guard struct {
	routes    []RouteDescriptor
	enforcer  *auth.RouteEnforcer
	loginPath string
}

// New compiles routes into a guard. Routes are matched in declaration order.
// It fails if a role's landing page would itself redirect that role.
func New(routes []RouteDescriptor) (*Guard, error) {
	enforcer, err := auth.NewRouteEnforcer()
	if err != nil {
		return nil, err
	}

	g := &Guard{
		routes:    make([]RouteDescriptor, 0, len(routes)),
		enforcer:  enforcer,
		loginPath: auth.LoginPath,
	}

	seen := make(map[string]bool, len(routes))
	for _, rd := range routes {
		rd.Path = normalize(rd.Path)
		if seen[rd.Path] {
			return nil, fmt.Errorf("duplicate route %s", rd.Path)
		}
		seen[rd.Path] = true

		for _, role := range rd.AllowedRoles {
			if err := enforcer.Grant(role, rd.Path); err != nil {
				return nil, fmt.Errorf("route %s: %w", rd.Path, err)
			}
		}
		rd.AllowedRoles = append([]auth.Role(nil), rd.AllowedRoles...)
		g.routes = append(g.routes, rd)
	}

	if rd, ok := g.Match(g.loginPath); ok && !rd.Public() {
		return nil, fmt.Errorf("login route %s must be public", g.loginPath)
	}
	for _, role := range auth.Roles {
		landing := auth.LandingPath(role)
		if d := g.Evaluate(landing, auth.Session{UserID: "check", Role: role}); d.Action != Allow {
			return nil, fmt.Errorf("landing route %s does not admit role %s", landing, role)
		}
	}

	return g, nil
}

// MustNew is New for static tables; it panics on error.
func MustNew(routes []RouteDescriptor) *Guard {
	g, err := New(routes)
	if err != nil {
		panic(err)
	}
	return g
}

// Routes returns a copy of the route table in match order.
func (g *Guard) Routes() []RouteDescriptor {
	out := make([]RouteDescriptor, len(g.routes))
	copy(out, g.routes)
	return out
}

// Match returns the first descriptor covering path. "/" covers only the root;
// any other descriptor covers its path and everything below it, on segment
// boundaries.
func (g *Guard) Match(path string) (RouteDescriptor, bool) {
	path = normalize(path)
	for _, rd := range g.routes {
		if matches(rd.Path, path) {
			return rd, true
		}
	}
	return RouteDescriptor{}, false
}

// Evaluate decides what to do with a request for path by session s.
func (g *Guard) Evaluate(path string, s auth.Session) Decision {
	rd, ok := g.Match(path)
	if !ok || rd.Public() {
		return Decision{Action: Allow}
	}
	if s.Loading {
		return Decision{Action: Pending}
	}
	if !s.Authenticated() || s.Role == auth.RoleNone {
		return Decision{Action: Redirect, Target: g.loginPath}
	}

	allowed, err := g.enforcer.Allowed(s.Role, rd.Path)
	if err != nil || !allowed {
		return Decision{Action: Redirect, Target: auth.LandingPath(s.Role)}
	}
	return Decision{Action: Allow}
}

// NavFor lists the navigation entries the session would be allowed to open.
func (g *Guard) NavFor(s auth.Session) []RouteDescriptor {
	if s.Loading || !s.Authenticated() {
		return nil
	}
	var out []RouteDescriptor
	for _, rd := range g.routes {
		if !rd.Nav || rd.Public() {
			continue
		}
		if g.Evaluate(rd.Path, s).Action == Allow {
			out = append(out, rd)
		}
	}
	return out
}

func matches(pattern, path string) bool {
	if pattern == "/" {
		return path == "/"
	}
	if path == pattern {
		return true
	}
	return strings.HasPrefix(path, pattern+"/")
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
