// Package identity adapts the external identity provider: password and
// federated sign-in, account creation, token refresh and ID token
// verification.
package identity

import (
	"context"
	"time"
)

// GoogleProviderID identifies Google credentials in SignInWithIDP.
const GoogleProviderID = "google.com"

// Tokens is the result of any sign-in or refresh.
type Tokens struct {
	UserID       string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	// NewUser is set by sign-up and first-time federated sign-in.
	NewUser bool
}

// Provider is the identity provider as seen by the session layer.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Tokens, error)
	SignUp(ctx context.Context, email, password string) (*Tokens, error)
	// SignInWithIDP exchanges a federated ID token (e.g. from Google) for
	// provider tokens.
	SignInWithIDP(ctx context.Context, providerID, idToken, requestURI string) (*Tokens, error)
	// Refresh forces a new ID token so freshly set custom claims are visible.
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
}

// Verifier checks an ID token's signature, issuer and audience and returns
// its claims.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (map[string]any, error)
}
