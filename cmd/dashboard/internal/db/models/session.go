package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Session is a signed-in browser. The cookie carries an opaque token; only
// its SHA-256 hash is stored.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`

	ID             string    `bun:"id,pk,type:uuid"`
	TokenHash      string    `bun:"token_hash,notnull,unique"`
	UserID         string    `bun:"user_id,notnull"`
	Email          string    `bun:"email,notnull,default:''"`
	Role           string    `bun:"role,notnull,default:''"` // last settled role
	IDToken        string    `bun:"id_token,type:text"`
	RefreshToken   string    `bun:"refresh_token,type:text"`
	TokenExpiresAt time.Time `bun:"token_expires_at,notnull"`
	UserAgent      *string   `bun:"user_agent"`
	IPAddress      *string   `bun:"ip_address"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	ExpiresAt      time.Time `bun:"expires_at,notnull"`
	LastUsedAt     time.Time `bun:"last_used_at,notnull,default:current_timestamp"`
	Revoked        bool      `bun:"revoked,notnull,default:false"`
}

// Active reports whether the session can still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
