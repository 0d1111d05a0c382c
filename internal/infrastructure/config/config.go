package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	HTTP      HTTPConfig
	Shopfront ShopfrontConfig
	Shopify   ShopifyConfig
	Sync      SyncConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// ShopfrontConfig holds source platform (Shopfront) settings
type ShopfrontConfig struct {
	// APIURLTemplate is the per-vendor GraphQL endpoint; %s is the vendor ID
	APIURLTemplate string
	// TokenURL is the OAuth token endpoint
	TokenURL string
	// AuthorizeURLTemplate is the per-vendor OAuth authorize page; %s is the vendor ID
	AuthorizeURLTemplate string
	// ClientID / ClientSecret identify this app to the OAuth endpoint
	ClientID     string
	ClientSecret string
	// RedirectURI is sent with authorization_code exchanges
	RedirectURI string
	// PageSize is the `first` argument of the products connection
	PageSize int
	// MaxRetries bounds throttle retries per page fetch
	MaxRetries int
	// RetryBaseDelay is the backoff base (delay = base * 2^attempt)
	RetryBaseDelay time.Duration
	// PageInterval is the minimum delay between successive page fetches
	PageInterval time.Duration
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
}

// ShopifyConfig holds destination platform (Shopify) settings
type ShopifyConfig struct {
	// Domain is the shop domain, e.g. "example.myshopify.com"
	Domain string
	// AccessToken is the static admin API token
	AccessToken string
	// APIVersion selects the admin API version path segment
	APIVersion string
	// MinRequestInterval is the global floor between requests
	MinRequestInterval time.Duration
	// ThrottleCooldown is slept once before the single 429 retry
	ThrottleCooldown time.Duration
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
}

// SyncConfig holds sync engine settings
type SyncConfig struct {
	// TokenRefreshMargin is the minimum remaining validity GetValidToken guarantees
	TokenRefreshMargin time.Duration
	// MaxTaskDuration bounds one background sync run
	MaxTaskDuration time.Duration
	// WebhookVerifySignatures toggles webhook HMAC verification
	WebhookVerifySignatures bool
	// WebhookSecret signs webhook payloads when verification is enabled
	WebhookSecret string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SHOPSYNC_ prefix (e.g. SHOPSYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SHOPSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Shopfront: ShopfrontConfig{
			APIURLTemplate:       v.GetString("shopfront.api_url_template"),
			TokenURL:             v.GetString("shopfront.token_url"),
			AuthorizeURLTemplate: v.GetString("shopfront.authorize_url_template"),
			ClientID:             v.GetString("shopfront.client_id"),
			ClientSecret:         v.GetString("shopfront.client_secret"),
			RedirectURI:          v.GetString("shopfront.redirect_uri"),
			PageSize:             v.GetInt("shopfront.page_size"),
			MaxRetries:           v.GetInt("shopfront.max_retries"),
			RetryBaseDelay:       v.GetDuration("shopfront.retry_base_delay"),
			PageInterval:         v.GetDuration("shopfront.page_interval"),
			Timeout:              v.GetDuration("shopfront.timeout"),
		},
		Shopify: ShopifyConfig{
			Domain:             v.GetString("shopify.domain"),
			AccessToken:        v.GetString("shopify.access_token"),
			APIVersion:         v.GetString("shopify.api_version"),
			MinRequestInterval: v.GetDuration("shopify.min_request_interval"),
			ThrottleCooldown:   v.GetDuration("shopify.throttle_cooldown"),
			Timeout:            v.GetDuration("shopify.timeout"),
		},
		Sync: SyncConfig{
			TokenRefreshMargin:      v.GetDuration("sync.token_refresh_margin"),
			MaxTaskDuration:         v.GetDuration("sync.max_task_duration"),
			WebhookVerifySignatures: v.GetBool("sync.webhook_verify_signatures"),
			WebhookSecret:           v.GetString("sync.webhook_secret"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shopsync-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shopsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Shopfront.APIURLTemplate == "" {
		cfg.Shopfront.APIURLTemplate = "https://%s.onshopfront.com/api/v2/graphql"
	}
	if cfg.Shopfront.TokenURL == "" {
		cfg.Shopfront.TokenURL = "https://onshopfront.com/oauth/token"
	}
	if cfg.Shopfront.AuthorizeURLTemplate == "" {
		cfg.Shopfront.AuthorizeURLTemplate = "https://%s.onshopfront.com/oauth/authorize"
	}
	if cfg.Shopfront.PageSize == 0 {
		cfg.Shopfront.PageSize = 50
	}
	if cfg.Shopfront.MaxRetries == 0 {
		cfg.Shopfront.MaxRetries = 3
	}
	if cfg.Shopfront.RetryBaseDelay == 0 {
		cfg.Shopfront.RetryBaseDelay = time.Second
	}
	if cfg.Shopfront.PageInterval == 0 {
		cfg.Shopfront.PageInterval = 2 * time.Second
	}
	if cfg.Shopfront.Timeout == 0 {
		cfg.Shopfront.Timeout = 30 * time.Second
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2025-07"
	}
	if cfg.Shopify.MinRequestInterval == 0 {
		cfg.Shopify.MinRequestInterval = 600 * time.Millisecond
	}
	if cfg.Shopify.ThrottleCooldown == 0 {
		cfg.Shopify.ThrottleCooldown = 2 * time.Second
	}
	if cfg.Shopify.Timeout == 0 {
		cfg.Shopify.Timeout = 30 * time.Second
	}
	if cfg.Sync.TokenRefreshMargin == 0 {
		cfg.Sync.TokenRefreshMargin = 5 * time.Minute
	}
	if cfg.Sync.MaxTaskDuration == 0 {
		cfg.Sync.MaxTaskDuration = 2 * time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if !strings.Contains(c.Shopfront.APIURLTemplate, "%s") {
		return fmt.Errorf("shopfront.api_url_template must contain a %%s vendor placeholder")
	}

	if c.App.Env == "production" {
		if c.Shopfront.ClientID == "" || c.Shopfront.ClientSecret == "" {
			return fmt.Errorf("shopfront.client_id and shopfront.client_secret are required in production")
		}
		if c.Shopify.Domain == "" || c.Shopify.AccessToken == "" {
			return fmt.Errorf("shopify.domain and shopify.access_token are required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Sync.WebhookVerifySignatures && c.Sync.WebhookSecret == "" {
			return fmt.Errorf("sync.webhook_secret is required when signature verification is enabled")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// VendorAPIURL returns the GraphQL endpoint for a vendor
func (s *ShopfrontConfig) VendorAPIURL(vendorID string) string {
	return fmt.Sprintf(s.APIURLTemplate, vendorID)
}
