package migrations

import (
	"context"
	"fmt"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260901000000, down_20260901000000)
}

// up_20260901000000 creates the sessions table
func up_20260901000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating sessions table...")

	_, err := db.NewCreateTable().
		Model((*models.Session)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create sessions index: %w", err)
		}
	}
	fmt.Println(" OK")

	return nil
}

// down_20260901000000 drops the sessions table
func down_20260901000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping sessions table...")

	_, err := db.NewDropTable().
		Model((*models.Session)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop sessions table: %w", err)
	}
	fmt.Println(" OK")

	return nil
}
