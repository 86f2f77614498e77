package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/db/bunx"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/forms"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/guard"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/identity"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/repository"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/server"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/session"
	"github.com/startupverse/dashboard/pkg/sdk"
)

var purgeInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Starts the HTTP server. The session database must be migrated first
with 'dashboard db init' and 'dashboard db migrate'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: cfg.MaxDBConnections})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)
		logger.Infow("connected to session database", "type", bunx.DetectDatabaseType(cfg.DatabaseURL))

		sessions, firebase, err := newSessionManager(db)
		if err != nil {
			return err
		}

		validator, err := forms.NewValidator()
		if err != nil {
			return fmt.Errorf("load form schemas: %w", err)
		}
		renderer, err := server.NewRenderer(logger)
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		routeGuard, err := guard.New(guard.DefaultRoutes())
		if err != nil {
			return fmt.Errorf("build route guard: %w", err)
		}

		var relyingParty *auth.RelyingParty
		googleRedirect := ""
		if cfg.Google != nil {
			relyingParty, err = auth.NewRelyingParty(cmd.Context(), cfg.Google, cfg.Session.SecureCookie)
			if err != nil {
				return fmt.Errorf("failed to create relying party: %w", err)
			}
			googleRedirect = cfg.Google.RedirectURI
			logger.Infow("google sign-in enabled", "issuer", cfg.Google.Issuer)
		}

		pages := &server.PageDependencies{
			Sessions:          sessions,
			Identity:          firebase,
			Backend:           server.SDKBackend(sdk.NewClient(cfg.API.BaseURL, sdk.WithTimeout(cfg.API.Timeout))),
			Forms:             validator,
			Guard:             routeGuard,
			Renderer:          renderer,
			Cookies:           auth.CookieWriter{Secure: cfg.Session.SecureCookie},
			Logger:            logger,
			GoogleEnabled:     relyingParty != nil,
			GoogleRedirectURI: googleRedirect,
			LoadingRefresh:    cfg.Session.SettleWindow,
		}

		corsOpts := server.DefaultCORSOptions()
		corsOpts.AllowedOrigins = cfg.CORSAllowedOrigins

		router, err := server.NewRouter(server.RouterOptions{
			Pages:        pages,
			Sessions:     sessions,
			RelyingParty: relyingParty,
			CORSOptions:  &corsOpts,
			Logger:       logger,
		})
		if err != nil {
			return fmt.Errorf("build router: %w", err)
		}

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		purgeCtx, cancelPurge := context.WithCancel(cmd.Context())
		defer cancelPurge()
		go purgeLoop(purgeCtx, sessions, purgeInterval)

		serverErrors := make(chan error, 1)
		go func() {
			logger.Infow("starting server", "addr", cfg.ServerAddr, "url", cfg.ServerURL, "api", cfg.API.BaseURL)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// SIGHUP purges expired sessions immediately.
		purgeNow := make(chan os.Signal, 1)
		signal.Notify(purgeNow, syscall.SIGHUP)

		for {
			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-purgeNow:
				logger.Infow("received signal, purging sessions", "signal", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if _, err := sessions.PurgeExpired(ctx); err != nil {
					logger.Errorw("manual session purge failed", "error", err)
				}
				cancel()

			case sig := <-shutdown:
				logger.Infow("received signal, shutting down gracefully", "signal", sig)

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					srv.Close()
					return fmt.Errorf("graceful shutdown failed: %w", err)
				}

				logger.Infow("server stopped")
				return nil
			}
		}
	},
}

// newSessionManager builds the session manager and the identity provider it
// refreshes tokens with.
func newSessionManager(db *bun.DB) (*session.Manager, *identity.Firebase, error) {
	if err := cfg.Identity.Validate(); err != nil {
		return nil, nil, err
	}

	firebase, err := identity.NewFirebase(identity.FirebaseOptions{
		APIKey:         cfg.Identity.APIKey,
		ToolkitURL:     cfg.Identity.ToolkitURL,
		SecureTokenURL: cfg.Identity.SecureTokenURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("configure identity provider: %w", err)
	}
	verifier, err := identity.NewTokenVerifier(cfg.Identity.Issuer, cfg.Identity.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("configure token verifier: %w", err)
	}

	sessions, err := session.NewManager(repository.NewBunSessionRepository(db), firebase, verifier, session.Options{
		TTL:          cfg.Session.TTL,
		RefreshSkew:  cfg.Session.RefreshSkew,
		SettleWindow: cfg.Session.SettleWindow,
		CacheSize:    cfg.Session.CacheSize,
		RoleClaim:    cfg.Identity.RoleClaim,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create session manager: %w", err)
	}
	return sessions, firebase, nil
}

type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// purgeLoop deletes expired and revoked sessions until ctx is done.
func purgeLoop(ctx context.Context, sessions sessionPurger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := sessions.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
				logger.Errorw("background session purge failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func init() {
	serveCmd.Flags().DurationVar(&purgeInterval, "purge-interval", time.Hour, "How often expired sessions are deleted (0 disables)")
	rootCmd.AddCommand(serveCmd)
}
