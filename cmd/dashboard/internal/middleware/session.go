package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/session"
)

// SessionResolver resolves a cookie token into a session snapshot.
type SessionResolver interface {
	Resolve(ctx context.Context, rawToken string) (auth.Session, error)
}

// SessionDependencies bundles collaborators required by the session middleware.
type SessionDependencies struct {
	Sessions SessionResolver
	Cookies  auth.CookieWriter
	Logger   *zap.SugaredLogger
}

// NewSessionMiddleware resolves the session cookie and stores the snapshot
// on the request context. Stale cookies are cleared. Store failures are
// logged and the request continues as anonymous.
func NewSessionMiddleware(deps SessionDependencies) (func(http.Handler) http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session middleware requires a session resolver")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkipSession(r) {
				next.ServeHTTP(w, r)
				return
			}

			token := auth.SessionToken(r)
			s, err := deps.Sessions.Resolve(r.Context(), token)
			switch {
			case errors.Is(err, session.ErrNoSession):
				deps.Cookies.ClearSession(w, r)
				s = auth.Anonymous()
			case err != nil:
				logger.Errorw("session lookup failed", "path", r.URL.Path, "error", err)
				s = auth.Anonymous()
			}

			ctx := auth.SetSessionContext(r.Context(), s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

// shouldSkipSession determines if session resolution should be skipped for the request
func shouldSkipSession(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	for _, prefix := range []string{"/health", "/static/"} {
		if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}
