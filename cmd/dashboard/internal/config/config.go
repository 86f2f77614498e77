package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "DASHBOARD"

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN) for the server-side session store
	DatabaseURL string

	// Server bind address (host:port)
	ServerAddr string

	// Public base URL of the dashboard, used for OAuth redirects
	ServerURL string

	// Maximum database connection pool size
	MaxDBConnections int

	// Enable debug logging
	Debug bool

	API      APIConfig
	Identity IdentityConfig
	Session  SessionConfig

	// Google sign-in; nil when not configured
	Google *GoogleConfig

	// Origins allowed to call the JSON endpoints
	CORSAllowedOrigins []string
}

// APIConfig points at the REST backend that owns startups, memos and users.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// IdentityConfig configures the Firebase identity provider adapter.
type IdentityConfig struct {
	ProjectID string
	APIKey    string

	// Issuer of ID tokens. Defaults to https://securetoken.google.com/<ProjectID>.
	Issuer string

	// Endpoint overrides, e.g. for the Auth emulator.
	ToolkitURL     string
	SecureTokenURL string

	// Custom claim carrying the dashboard role
	RoleClaim string
}

// Validate checks that the identity provider can be reached. Only the serve
// command requires it; migration and session commands run without it.
func (c IdentityConfig) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("identity.project_id is required (env: %s_IDENTITY_PROJECT_ID)", EnvPrefix)
	}
	if c.APIKey == "" {
		return fmt.Errorf("identity.api_key is required (env: %s_IDENTITY_API_KEY)", EnvPrefix)
	}
	return nil
}

// GoogleConfig holds the OAuth client used for "Sign in with Google".
type GoogleConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// SessionConfig tunes server-side session handling.
type SessionConfig struct {
	// Lifetime of a session cookie and its stored record
	TTL time.Duration

	// Refresh the ID token when it expires within this window
	RefreshSkew time.Duration

	// How long a changed role must hold before the guard acts on it
	SettleWindow time.Duration

	// Number of live session resolvers kept in memory
	CacheSize int

	// Mark cookies Secure
	SecureCookie bool
}

func setDefaults() {
	viper.SetDefault("database_url", "file:dashboard.db?cache=shared")
	viper.SetDefault("server_addr", "localhost:8080")
	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("max_db_connections", 25)
	viper.SetDefault("debug", false)

	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout", 15*time.Second)

	viper.SetDefault("identity.project_id", "")
	viper.SetDefault("identity.api_key", "")
	viper.SetDefault("identity.issuer", "")
	viper.SetDefault("identity.toolkit_url", "https://identitytoolkit.googleapis.com")
	viper.SetDefault("identity.securetoken_url", "https://securetoken.googleapis.com")
	viper.SetDefault("identity.role_claim", "role")

	viper.SetDefault("google.issuer", "https://accounts.google.com")
	viper.SetDefault("google.client_id", "")
	viper.SetDefault("google.client_secret", "")
	viper.SetDefault("google.redirect_uri", "")
	viper.SetDefault("google.scopes", []string{"openid", "profile", "email"})

	viper.SetDefault("session.ttl", 12*time.Hour)
	viper.SetDefault("session.refresh_skew", 5*time.Minute)
	viper.SetDefault("session.settle_window", 2*time.Second)
	viper.SetDefault("session.cache_size", 1024)
	viper.SetDefault("session.secure_cookie", false)

	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
}

// Load reads configuration from DASHBOARD_ prefixed environment variables,
// an optional config file already registered with viper, and defaults.
func Load() (*Config, error) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	cfg := &Config{
		DatabaseURL:      viper.GetString("database_url"),
		ServerAddr:       viper.GetString("server_addr"),
		ServerURL:        strings.TrimRight(viper.GetString("server_url"), "/"),
		MaxDBConnections: viper.GetInt("max_db_connections"),
		Debug:            viper.GetBool("debug"),
		API: APIConfig{
			BaseURL: strings.TrimRight(viper.GetString("api.base_url"), "/"),
			Timeout: viper.GetDuration("api.timeout"),
		},
		Identity: IdentityConfig{
			ProjectID:      viper.GetString("identity.project_id"),
			APIKey:         viper.GetString("identity.api_key"),
			Issuer:         viper.GetString("identity.issuer"),
			ToolkitURL:     strings.TrimRight(viper.GetString("identity.toolkit_url"), "/"),
			SecureTokenURL: strings.TrimRight(viper.GetString("identity.securetoken_url"), "/"),
			RoleClaim:      viper.GetString("identity.role_claim"),
		},
		Session: SessionConfig{
			TTL:          viper.GetDuration("session.ttl"),
			RefreshSkew:  viper.GetDuration("session.refresh_skew"),
			SettleWindow: viper.GetDuration("session.settle_window"),
			CacheSize:    viper.GetInt("session.cache_size"),
			SecureCookie: viper.GetBool("session.secure_cookie"),
		},
		Google:             loadGoogleConfig(),
		CORSAllowedOrigins: getList("cors.allowed_origins"),
	}

	if cfg.Identity.Issuer == "" && cfg.Identity.ProjectID != "" {
		cfg.Identity.Issuer = "https://securetoken.google.com/" + cfg.Identity.ProjectID
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (env: %s_DATABASE_URL)", EnvPrefix)
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is required (env: %s_SERVER_URL)", EnvPrefix)
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required (env: %s_API_BASE_URL)", EnvPrefix)
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("session.ttl must be positive")
	}
	if cfg.Session.CacheSize <= 0 {
		return nil, fmt.Errorf("session.cache_size must be positive")
	}

	if g := cfg.Google; g != nil {
		if g.ClientSecret == "" {
			return nil, fmt.Errorf("google.client_secret is required when google.client_id is set")
		}
		if g.RedirectURI == "" {
			g.RedirectURI = cfg.ServerURL + "/login/google/callback"
		}
	}

	return cfg, nil
}

// loadGoogleConfig returns nil if Google sign-in is not configured
func loadGoogleConfig() *GoogleConfig {
	clientID := viper.GetString("google.client_id")
	if clientID == "" {
		return nil
	}

	return &GoogleConfig{
		Issuer:       viper.GetString("google.issuer"),
		ClientID:     clientID,
		ClientSecret: viper.GetString("google.client_secret"),
		RedirectURI:  viper.GetString("google.redirect_uri"),
		Scopes:       getList("google.scopes"),
	}
}

// getList accepts either a YAML list or a comma separated env value.
func getList(key string) []string {
	if raw, ok := viper.Get(key).(string); ok {
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return viper.GetStringSlice(key)
}
