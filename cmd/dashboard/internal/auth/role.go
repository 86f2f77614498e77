package auth

import "strings"

// Role is the dashboard role carried in the identity provider's custom claim.
type Role string

const (
	RoleNone     Role = ""
	RoleAdmin    Role = "admin"
	RoleInvestor Role = "investor"
	RoleFounder  Role = "founder"
)

// LoginPath is where sessions without a usable role are sent.
const LoginPath = "/login"

// Roles lists every assignable role.
var Roles = []Role{RoleAdmin, RoleInvestor, RoleFounder}

// ParseRole maps a claim value onto a known role. Matching is case-insensitive;
// anything unrecognised yields RoleNone.
func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleInvestor:
		return RoleInvestor
	case RoleFounder:
		return RoleFounder
	default:
		return RoleNone
	}
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	return ParseRole(string(r)) == r && r != RoleNone
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// Title is the display form used in page headers.
func (r Role) Title() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleInvestor:
		return "Investor"
	case RoleFounder:
		return "Founder"
	default:
		return "Pending"
	}
}

// LandingPath returns the default route for a role.
func LandingPath(r Role) string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleInvestor:
		return "/investor"
	case RoleFounder:
		return "/founder"
	default:
		return LoginPath
	}
}
