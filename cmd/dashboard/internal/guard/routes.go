package guard

import "github.com/startupverse/dashboard/cmd/dashboard/internal/auth"

// DefaultRoutes is the dashboard's route table. Order matters: /founder/submit
// must precede /founder.
func DefaultRoutes() []RouteDescriptor {
	return []RouteDescriptor{
		{Path: "/", Title: "Home"},
		{Path: "/login", Title: "Sign in"},
		{Path: "/signup", Title: "Request access"},
		{Path: "/admin", Title: "Admin", Nav: true, AllowedRoles: []auth.Role{auth.RoleAdmin}},
		{Path: "/investor", Title: "Investor", Nav: true, AllowedRoles: []auth.Role{auth.RoleInvestor, auth.RoleAdmin}},
		{Path: "/founder/submit", Title: "Submit", Nav: true, AllowedRoles: []auth.Role{auth.RoleFounder}},
		{Path: "/founder", Title: "Founder", Nav: true, AllowedRoles: []auth.Role{auth.RoleFounder}},
		{Path: "/meet", Title: "Meetings", Nav: true, AllowedRoles: []auth.Role{auth.RoleInvestor, auth.RoleFounder, auth.RoleAdmin}},
		{Path: "/memo", Title: "Memo", AllowedRoles: []auth.Role{auth.RoleInvestor, auth.RoleAdmin}},
	}
}
