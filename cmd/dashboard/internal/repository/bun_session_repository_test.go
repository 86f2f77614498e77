package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/db/bunx"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/db/models"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// setupTestDB opens a private in-memory SQLite database and runs all migrations.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", bunx.NewUUIDv7())
	db, err := bunx.NewDB(dsn, bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return db
}

func newSession(userID, hash string, expiresAt time.Time) *models.Session {
	return &models.Session{
		TokenHash:      hash,
		UserID:         userID,
		Email:          userID + "@example.com",
		Role:           "investor",
		IDToken:        "id-token",
		RefreshToken:   "refresh-token",
		TokenExpiresAt: time.Now().Add(time.Hour),
		ExpiresAt:      expiresAt,
	}
}

func TestBunSessionRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()

	s := newSession("uid-1", "hash-1", time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, s))
	require.NotEmpty(t, s.ID)

	byHash, err := repo.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, byHash.ID)
	assert.Equal(t, "investor", byHash.Role)
	assert.Equal(t, "uid-1@example.com", byHash.Email)

	byID, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", byID.TokenHash)

	t.Run("duplicate token hash", func(t *testing.T) {
		err := repo.Create(ctx, newSession("uid-2", "hash-1", time.Now().Add(time.Hour)))
		require.Error(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByTokenHash(ctx, "missing")
		require.ErrorIs(t, err, ErrSessionNotFound)

		_, err = repo.GetByID(ctx, bunx.NewUUIDv7())
		require.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestBunSessionRepository_UpdateTokens(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()

	s := newSession("uid-1", "hash-1", time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, s))

	exp := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateTokens(ctx, s.ID, "id-2", "refresh-2", exp, "admin"))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "id-2", got.IDToken)
	assert.Equal(t, "refresh-2", got.RefreshToken)
	assert.Equal(t, "admin", got.Role)
	assert.True(t, exp.Equal(got.TokenExpiresAt), "got %s", got.TokenExpiresAt)

	err = repo.UpdateTokens(ctx, bunx.NewUUIDv7(), "x", "y", exp, "admin")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBunSessionRepository_Revoke(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()

	a := newSession("uid-1", "hash-a", time.Now().Add(time.Hour))
	b := newSession("uid-1", "hash-b", time.Now().Add(time.Hour))
	c := newSession("uid-2", "hash-c", time.Now().Add(time.Hour))
	for _, s := range []*models.Session{a, b, c} {
		require.NoError(t, repo.Create(ctx, s))
	}

	require.NoError(t, repo.Revoke(ctx, a.ID))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Revoked)
	assert.False(t, got.Active(time.Now()))

	n, err := repo.RevokeByUserID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "already revoked session is not counted")

	sessions, err := repo.GetByUserID(ctx, "uid-2")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Revoked)

	require.ErrorIs(t, repo.Revoke(ctx, bunx.NewUUIDv7()), ErrSessionNotFound)
}

func TestBunSessionRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	live := newSession("uid-1", "hash-live", now.Add(time.Hour))
	expired := newSession("uid-1", "hash-expired", now.Add(-time.Minute))
	revoked := newSession("uid-2", "hash-revoked", now.Add(time.Hour))
	for _, s := range []*models.Session{live, expired, revoked} {
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.Revoke(ctx, revoked.ID))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, live.ID, all[0].ID)
}

func TestBunSessionRepository_UpdateLastUsed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()

	s := newSession("uid-1", "hash-1", time.Now().Add(time.Hour))
	s.LastUsedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, s))

	require.NoError(t, repo.UpdateLastUsed(ctx, s.ID))
	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got.LastUsedAt, 5*time.Second)
}
