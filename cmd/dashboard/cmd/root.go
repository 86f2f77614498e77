package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/config"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "StartupVerse dashboard server",
	Long: `The StartupVerse dashboard serves the admin, founder and investor pages.
It signs users in with Firebase, keeps server-side sessions and forwards
requests to the StartupVerse REST API with the user's ID token.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger, err = logging.New(cfg.Debug)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().String("db-url", "", "Session database URL (env: DASHBOARD_DATABASE_URL)")
	rootCmd.PersistentFlags().String("server-addr", "", "Server bind address (env: DASHBOARD_SERVER_ADDR)")
	rootCmd.PersistentFlags().String("server-url", "", "Public base URL (env: DASHBOARD_SERVER_URL)")
	rootCmd.PersistentFlags().String("api-url", "", "StartupVerse REST API base URL (env: DASHBOARD_API_BASE_URL)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: DASHBOARD_DEBUG)")

	bindFlag("database_url", "db-url")
	bindFlag("server_addr", "server-addr")
	bindFlag("server_url", "server-url")
	bindFlag("api.base_url", "api-url")
	bindFlag("debug", "debug")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
