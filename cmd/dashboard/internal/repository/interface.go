package repository

import (
	"context"
	"errors"
	"time"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/db/models"
)

// ErrSessionNotFound is returned when no session matches the lookup.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository exposes persistence operations for browser sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Session, error)
	List(ctx context.Context) ([]models.Session, error)

	// UpdateTokens stores refreshed provider tokens and the settled role.
	UpdateTokens(ctx context.Context, id, idToken, refreshToken string, tokenExpiresAt time.Time, role string) error
	UpdateLastUsed(ctx context.Context, id string) error

	Revoke(ctx context.Context, id string) error
	RevokeByUserID(ctx context.Context, userID string) (int, error)
	// DeleteExpired removes sessions that expired before now and returns
	// how many were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
