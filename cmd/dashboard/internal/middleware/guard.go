package middleware

import (
	"errors"
	"net/http"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/guard"
)

// GuardDependencies provides the collaborators needed for page guarding.
type GuardDependencies struct {
	Guard *guard.Guard
	// Loading renders the neutral page shown while the role is unsettled.
	Loading http.Handler
}

// NewGuardMiddleware evaluates the route guard on every request. Denied
// requests are redirected with 303; unsettled sessions get the loading page.
func NewGuardMiddleware(deps GuardDependencies) (func(http.Handler) http.Handler, error) {
	if deps.Guard == nil {
		return nil, errors.New("guard middleware requires a guard")
	}
	if deps.Loading == nil {
		return nil, errors.New("guard middleware requires a loading handler")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := auth.GetSessionFromContext(r.Context())
			decision := deps.Guard.Evaluate(r.URL.Path, s)

			switch decision.Action {
			case guard.Pending:
				if r.Method != http.MethodGet && r.Method != http.MethodHead {
					// Forms re-submitted while loading go back to the page.
					http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
					return
				}
				deps.Loading.ServeHTTP(w, r)
			case guard.Redirect:
				http.Redirect(w, r, decision.Target, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}, nil
}
