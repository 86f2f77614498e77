package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/db/models"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/identity"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/repository"
)

// refreshTimeout bounds a token refresh, including claim verification.
const refreshTimeout = 15 * time.Second

// ErrNoSession is returned by Resolve when the cookie token does not
// reference a live session.
var ErrNoSession = errors.New("no active session")

// Options configures a Manager.
type Options struct {
	// TTL bounds the lifetime of a browser session.
	TTL time.Duration
	// RefreshSkew refreshes ID tokens this long before they expire.
	RefreshSkew time.Duration
	// SettleWindow is how long a changed role must persist before it applies.
	SettleWindow time.Duration
	// CacheSize bounds the number of resolvers kept in memory.
	CacheSize int
	// RoleClaim names the custom claim holding the role.
	RoleClaim string
	Clock     clock.Clock
}

func (o *Options) applyDefaults() {
	if o.TTL <= 0 {
		o.TTL = 12 * time.Hour
	}
	if o.RefreshSkew <= 0 {
		o.RefreshSkew = 5 * time.Minute
	}
	if o.SettleWindow < 0 {
		o.SettleWindow = 0
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 1024
	}
	if o.RoleClaim == "" {
		o.RoleClaim = "role"
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
}

// ClientMeta describes the browser that created a session.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// Manager owns server-side sessions: it persists them, keeps one Resolver
// per live session and refreshes ID tokens so role changes become visible.
type Manager struct {
	repo      repository.SessionRepository
	provider  identity.Provider
	verifier  identity.Verifier
	opts      Options
	clock     clock.Clock
	resolvers *lru.Cache[string, *Resolver]
	refreshes singleflight.Group
	logger    *zap.SugaredLogger
}

// NewManager creates a session manager.
func NewManager(repo repository.SessionRepository, provider identity.Provider, verifier identity.Verifier, opts Options, logger *zap.SugaredLogger) (*Manager, error) {
	if repo == nil || provider == nil || verifier == nil {
		return nil, fmt.Errorf("session manager requires a repository, provider and verifier")
	}
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	cache, err := lru.New[string, *Resolver](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create resolver cache: %w", err)
	}

	return &Manager{
		repo:      repo,
		provider:  provider,
		verifier:  verifier,
		opts:      opts,
		clock:     opts.Clock,
		resolvers: cache,
		logger:    logger,
	}, nil
}

// TTL is the lifetime of new sessions; the cookie uses the same value.
func (m *Manager) TTL() time.Duration {
	return m.opts.TTL
}

// Create starts a session for freshly signed-in tokens. The ID token is
// force-refreshed first so custom claims set during sign-up are visible.
// It returns the cookie token and the initial snapshot.
func (m *Manager) Create(ctx context.Context, tokens *identity.Tokens, meta ClientMeta) (string, auth.Session, error) {
	if tokens == nil || tokens.UserID == "" {
		return "", auth.Session{}, fmt.Errorf("create session: missing user")
	}

	current := *tokens
	if refreshed, err := m.provider.Refresh(ctx, tokens.RefreshToken); err != nil {
		m.logger.Warnw("token refresh after sign-in failed, using sign-in token", "user", tokens.UserID, "error", err)
	} else {
		current = mergeTokens(current, refreshed)
	}

	role := m.roleFor(ctx, current.UserID, current.IDToken)

	token, hash, err := auth.GenerateSessionToken()
	if err != nil {
		return "", auth.Session{}, fmt.Errorf("create session: %w", err)
	}

	now := m.clock.Now()
	record := &models.Session{
		TokenHash:      hash,
		UserID:         current.UserID,
		Email:          current.Email,
		Role:           string(role),
		IDToken:        current.IDToken,
		RefreshToken:   current.RefreshToken,
		TokenExpiresAt: current.ExpiresAt,
		UserAgent:      optional(meta.UserAgent),
		IPAddress:      optional(meta.IP),
		CreatedAt:      now,
		LastUsedAt:     now,
		ExpiresAt:      now.Add(m.opts.TTL),
	}
	if err := m.repo.Create(ctx, record); err != nil {
		return "", auth.Session{}, fmt.Errorf("create session: %w", err)
	}

	resolver := NewResolver(m.clock, m.opts.SettleWindow)
	snap := resolver.Observe(&Identity{UserID: current.UserID, Email: current.Email}, role)
	m.resolvers.Add(record.ID, resolver)

	m.logger.Infow("session created", "session", record.ID, "user", record.UserID, "role", role.String())

	snap.ID = record.ID
	snap.IDToken = record.IDToken
	return token, snap, nil
}

// Resolve returns the session referenced by a cookie token. An empty token
// yields the anonymous session; unknown, revoked or expired tokens yield
// ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, rawToken string) (auth.Session, error) {
	if rawToken == "" {
		return auth.Anonymous(), nil
	}

	record, err := m.repo.GetByTokenHash(ctx, auth.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return auth.Anonymous(), ErrNoSession
		}
		return auth.Anonymous(), fmt.Errorf("resolve session: %w", err)
	}
	if !record.Active(m.clock.Now()) {
		m.resolvers.Remove(record.ID)
		return auth.Anonymous(), ErrNoSession
	}

	resolver := m.resolverFor(record)

	if m.needsRefresh(record, resolver) {
		// Waiters share the result, so the refresh must outlive the request
		// that started it.
		v, _, _ := m.refreshes.Do(record.ID, func() (any, error) {
			refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
			defer cancel()
			return m.refresh(refreshCtx, record, resolver), nil
		})
		record = v.(*models.Session)
	}

	if err := m.repo.UpdateLastUsed(ctx, record.ID); err != nil {
		m.logger.Debugw("update session last used failed", "session", record.ID, "error", err)
	}

	snap := resolver.Snapshot()
	snap.ID = record.ID
	snap.IDToken = record.IDToken
	return snap, nil
}

// Destroy signs out the session referenced by a cookie token. Unknown tokens
// are ignored.
func (m *Manager) Destroy(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	record, err := m.repo.GetByTokenHash(ctx, auth.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("destroy session: %w", err)
	}

	if r, ok := m.resolvers.Peek(record.ID); ok {
		r.Observe(nil, auth.RoleNone)
	}
	m.resolvers.Remove(record.ID)

	if err := m.repo.Revoke(ctx, record.ID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	m.logger.Infow("session destroyed", "session", record.ID, "user", record.UserID)
	return nil
}

// Revoke revokes a session by ID.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	m.resolvers.Remove(id)
	if err := m.repo.Revoke(ctx, id); err != nil {
		return err
	}
	m.logger.Infow("session revoked", "session", id)
	return nil
}

// RevokeUser revokes every session of a user and returns how many were live.
func (m *Manager) RevokeUser(ctx context.Context, userID string) (int, error) {
	n, err := m.repo.RevokeByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, id := range m.resolvers.Keys() {
		if r, ok := m.resolvers.Peek(id); ok && r.Snapshot().UserID == userID {
			m.resolvers.Remove(id)
		}
	}
	m.logger.Infow("user sessions revoked", "user", userID, "count", n)
	return n, nil
}

// List returns all stored sessions, newest first.
func (m *Manager) List(ctx context.Context) ([]models.Session, error) {
	return m.repo.List(ctx)
}

// PurgeExpired deletes expired and revoked sessions.
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	n, err := m.repo.DeleteExpired(ctx, m.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Infow("expired sessions purged", "count", n)
	}
	return n, nil
}

func (m *Manager) resolverFor(record *models.Session) *Resolver {
	if r, ok := m.resolvers.Get(record.ID); ok {
		return r
	}
	r := NewResolver(m.clock, m.opts.SettleWindow)
	r.Observe(&Identity{UserID: record.UserID, Email: record.Email}, auth.ParseRole(record.Role))
	m.resolvers.Add(record.ID, r)
	return r
}

func (m *Manager) needsRefresh(record *models.Session, r *Resolver) bool {
	if record.TokenExpiresAt.Sub(m.clock.Now()) <= m.opts.RefreshSkew {
		return true
	}
	return r.PendingDue()
}

// refresh renews the session's ID token and feeds the resulting role to the
// resolver. A failed refresh observes RoleNone and keeps the old tokens.
func (m *Manager) refresh(ctx context.Context, record *models.Session, r *Resolver) *models.Session {
	id := &Identity{UserID: record.UserID, Email: record.Email}

	tokens, err := m.provider.Refresh(ctx, record.RefreshToken)
	if err != nil {
		m.logger.Warnw("token refresh failed", "session", record.ID, "user", record.UserID, "error", err)
		r.Observe(id, auth.RoleNone)
		return record
	}

	if tokens.Email != "" {
		id.Email = tokens.Email
	}
	r.Observe(id, m.roleFor(ctx, record.UserID, tokens.IDToken))

	updated := *record
	updated.IDToken = tokens.IDToken
	if tokens.RefreshToken != "" {
		updated.RefreshToken = tokens.RefreshToken
	}
	updated.TokenExpiresAt = tokens.ExpiresAt
	updated.Email = id.Email
	updated.Role = string(r.Settled())

	if err := m.repo.UpdateTokens(ctx, updated.ID, updated.IDToken, updated.RefreshToken, updated.TokenExpiresAt, updated.Role); err != nil {
		m.logger.Errorw("persist refreshed tokens failed", "session", record.ID, "error", err)
	}
	return &updated
}

// roleFor verifies an ID token and extracts the role claim. Any failure
// yields RoleNone.
func (m *Manager) roleFor(ctx context.Context, userID, idToken string) auth.Role {
	raw, err := m.verifier.Verify(ctx, idToken)
	if err != nil {
		m.logger.Warnw("ID token verification failed", "user", userID, "error", err)
		return auth.RoleNone
	}
	claims, err := auth.ExtractClaims(raw, m.opts.RoleClaim)
	if err != nil {
		m.logger.Warnw("decode claims failed", "user", userID, "error", err)
		return auth.RoleNone
	}
	if claims.UID() != userID {
		m.logger.Warnw("ID token subject mismatch", "user", userID, "subject", claims.UID())
		return auth.RoleNone
	}
	return claims.Role
}

func mergeTokens(base identity.Tokens, refreshed *identity.Tokens) identity.Tokens {
	out := base
	if refreshed.IDToken != "" {
		out.IDToken = refreshed.IDToken
	}
	if refreshed.RefreshToken != "" {
		out.RefreshToken = refreshed.RefreshToken
	}
	if !refreshed.ExpiresAt.IsZero() {
		out.ExpiresAt = refreshed.ExpiresAt
	}
	if refreshed.Email != "" {
		out.Email = refreshed.Email
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
