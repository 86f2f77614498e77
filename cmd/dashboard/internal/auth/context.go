package auth

import "context"

// Session is the resolved view of the current browser session.
type Session struct {
	// ID references the sessions row; empty for anonymous requests.
	ID string `json:"-"`
	// UserID is the identity provider uid.
	UserID string `json:"user,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
	// Loading is true while the role is not yet settled.
	Loading bool `json:"loading"`
	// IDToken is forwarded to the backend as a bearer token.
	IDToken string `json:"-"`
}

// Anonymous is the session of a signed out visitor.
func Anonymous() Session {
	return Session{}
}

// Authenticated reports whether a user is signed in, regardless of role.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

type sessionContextKey struct{}

// SetSessionContext stores the resolved session on the context for downstream handlers.
func SetSessionContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// GetSessionFromContext retrieves the resolved session. Requests that never
// passed the session middleware get the anonymous session.
func GetSessionFromContext(ctx context.Context) Session {
	s, ok := ctx.Value(sessionContextKey{}).(Session)
	if !ok {
		return Anonymous()
	}
	return s
}
