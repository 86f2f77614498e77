package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260915000000, down_20260915000000)
}

// up_20260915000000 restricts sessions.role to known roles. SQLite cannot
// add constraints to an existing table, so it is skipped there.
func up_20260915000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] adding sessions role check...")

	if !IsPostgreSQL(db) {
		fmt.Println(" SKIPPED (sqlite)")
		return nil
	}

	_, err := db.ExecContext(ctx, `
		ALTER TABLE sessions
		ADD CONSTRAINT sessions_role_check
		CHECK (role IN ('', 'admin', 'investor', 'founder'))
	`)
	if err != nil {
		return fmt.Errorf("failed to add sessions role check: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260915000000 drops the role check
func down_20260915000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping sessions role check...")

	if IsSQLite(db) {
		fmt.Println(" SKIPPED (sqlite)")
		return nil
	}

	_, err := db.ExecContext(ctx, `ALTER TABLE sessions DROP CONSTRAINT IF EXISTS sessions_role_check`)
	if err != nil {
		return fmt.Errorf("failed to drop sessions role check: %w", err)
	}
	fmt.Println(" OK")

	return nil
}
