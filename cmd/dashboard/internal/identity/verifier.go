package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/xenitab/go-oidc-middleware/oidctoken"
	"github.com/xenitab/go-oidc-middleware/options"
)

// TokenVerifier validates ID tokens against the issuer's published keys.
type TokenVerifier struct {
	tokenHandler *oidctoken.TokenHandler[map[string]any]
}

var _ Verifier = (*TokenVerifier)(nil)

// NewTokenVerifier creates a verifier for tokens issued by issuer to audience
// (the Firebase project id). Keys are fetched on first use.
func NewTokenVerifier(issuer, audience string) (*TokenVerifier, error) {
	if issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	if audience == "" {
		return nil, fmt.Errorf("audience is required")
	}

	tokenHandler, err := oidctoken.New[map[string]any](nil,
		options.WithIssuer(issuer),
		options.WithRequiredAudience(audience),
		options.WithLazyLoadJwks(true),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize oidc token handler: %w", err)
	}

	return &TokenVerifier{tokenHandler: tokenHandler}, nil
}

// Verify returns the claims of a valid token.
func (v *TokenVerifier) Verify(ctx context.Context, idToken string) (map[string]any, error) {
	claims, err := v.tokenHandler.ParseToken(ctx, strings.TrimSpace(idToken))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
