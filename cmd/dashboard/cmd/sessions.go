package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/db/bunx"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/session"
)

var revokeUser string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and revoke dashboard sessions",
}

// withSessions runs fn against a session manager. Sessions revoked here are
// rejected by running servers on their next lookup.
func withSessions(fn func(ctx context.Context, sessions *session.Manager) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer bunx.Close(db)

	sessions, _, err := newSessionManager(db)
	if err != nil {
		return err
	}
	return fn(context.Background(), sessions)
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, sessions *session.Manager) error {
			list, err := sessions.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			if len(list) == 0 {
				pterm.Info.Println("No sessions.")
				return nil
			}

			now := time.Now()
			table := pterm.TableData{{"ID", "EMAIL", "ROLE", "CREATED", "LAST USED", "STATE"}}
			for _, s := range list {
				state := "active"
				switch {
				case s.Revoked:
					state = "revoked"
				case !s.Active(now):
					state = "expired"
				}
				table = append(table, []string{
					s.ID,
					s.Email,
					s.Role,
					s.CreatedAt.Format(time.RFC3339),
					s.LastUsedAt.Format(time.RFC3339),
					state,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		})
	},
}

var sessionsRevokeCmd = &cobra.Command{
	Use:   "revoke [session-id]",
	Short: "Revoke a session, or every session of a user with --user",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 0) == (revokeUser == "") {
			return fmt.Errorf("pass either a session id or --user")
		}
		return withSessions(func(ctx context.Context, sessions *session.Manager) error {
			if revokeUser != "" {
				n, err := sessions.RevokeUser(ctx, revokeUser)
				if err != nil {
					return fmt.Errorf("failed to revoke sessions of %s: %w", revokeUser, err)
				}
				pterm.Success.Printf("Revoked %d session(s) of %s\n", n, revokeUser)
				return nil
			}

			if err := sessions.Revoke(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to revoke session %s: %w", args[0], err)
			}
			pterm.Success.Printf("Revoked session %s\n", args[0])
			return nil
		})
	},
}

var sessionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired and revoked sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, sessions *session.Manager) error {
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				return fmt.Errorf("failed to purge sessions: %w", err)
			}
			pterm.Success.Printf("Purged %d session(s)\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsRevokeCmd)
	sessionsRevokeCmd.Flags().StringVar(&revokeUser, "user", "", "Revoke every session of this user id")
	sessionsCmd.AddCommand(sessionsPurgeCmd)
}
