package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Anthropic     AnthropicConfig     `mapstructure:"anthropic"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Sources       SourcesConfig       `mapstructure:"sources"`
	WordPress     WordPressConfig     `mapstructure:"wordpress"`
	SearchConsole SearchConsoleConfig `mapstructure:"search_console"`
	License       LicenseConfig       `mapstructure:"license"`
	Tracker       TrackerConfig       `mapstructure:"tracker"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ReadTimeout     string `mapstructure:"read_timeout"`
	WriteTimeout    string `mapstructure:"write_timeout"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite
	DSN    string `mapstructure:"dsn"`    // Connection string
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"` // optional proxy
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// OpenAIConfig holds the image generation settings. The API key can also be
// set per installation through AppSettings.
type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	ImageModel string `mapstructure:"image_model"`
	ImageSize  string `mapstructure:"image_size"`
}

// AuthConfig holds REST authentication settings
type AuthConfig struct {
	AdminToken    string `mapstructure:"admin_token"`    // exchanged for a session nonce
	NonceSecret   string `mapstructure:"nonce_secret"`   // HMAC key for nonces
	NonceLifetime string `mapstructure:"nonce_lifetime"` // e.g. 12h
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`   // run cron inside `serve`
	TickCron string `mapstructure:"tick_cron"` // automation dispatcher cadence
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	AnthropicRequestsPerMinute int `mapstructure:"anthropic_requests_per_minute"`
	StockPhotoRequestsPerHour  int `mapstructure:"stock_photo_requests_per_hour"`
	WordPressRequestsPerMinute int `mapstructure:"wordpress_requests_per_minute"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// SourcesConfig holds inspiration sources used to seed idea generation
type SourcesConfig struct {
	RSS    RSSConfig    `mapstructure:"rss"`
	Custom CustomConfig `mapstructure:"custom"`
}

// RSSConfig holds RSS feed settings
type RSSConfig struct {
	Enabled  bool      `mapstructure:"enabled"`
	Feeds    []RSSFeed `mapstructure:"feeds"`
	MaxItems int       `mapstructure:"max_items"` // per feed
	MaxAge   string    `mapstructure:"max_age"`   // skip older items, e.g. 168h
}

// RSSFeed represents a single RSS feed
type RSSFeed struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// CustomConfig holds custom keyword settings
type CustomConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Keywords []string `mapstructure:"keywords"`
}

// WordPressConfig holds the remote site drafts are published to. When
// BaseURL is empty, the local store is the site.
type WordPressConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Username    string `mapstructure:"username"`
	AppPassword string `mapstructure:"app_password"`
	PostStatus  string `mapstructure:"post_status"` // publish or draft
}

// Enabled reports whether a remote WordPress site is configured
func (w WordPressConfig) Enabled() bool {
	return w.BaseURL != "" && w.Username != "" && w.AppPassword != ""
}

// SearchConsoleConfig holds Google OAuth client settings
type SearchConsoleConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURI  string   `mapstructure:"redirect_uri"`
	Scopes       []string `mapstructure:"scopes"`
	LookbackDays int      `mapstructure:"lookback_days"`
	QueryLimit   int      `mapstructure:"query_limit"`
}

// Enabled reports whether OAuth client credentials are configured
func (s SearchConsoleConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// LicenseConfig holds license verification settings
type LicenseConfig struct {
	VerifyURL string `mapstructure:"verify_url"`
	ProductID string `mapstructure:"product_id"`
	Enforce   bool   `mapstructure:"enforce"` // gate full-automatic mode
}

// TrackerConfig holds Google Sheets content calendar settings
type TrackerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".content-agent"))
		}
	}

	v.SetEnvPrefix("ACA")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	for _, key := range []string{
		"server.addr",
		"database.driver",
		"database.dsn",
		"anthropic.api_key",
		"anthropic.model",
		"openai.api_key",
		"auth.admin_token",
		"auth.nonce_secret",
		"scheduler.enabled",
		"scheduler.tick_cron",
		"logging.level",
		"logging.format",
		"wordpress.base_url",
		"wordpress.username",
		"wordpress.app_password",
		"search_console.client_id",
		"search_console.client_secret",
		"search_console.redirect_uri",
		"license.product_id",
		"license.enforce",
		"tracker.enabled",
		"tracker.spreadsheet_id",
		"tracker.credentials_file",
		"tracker.service_account_json",
	} {
		_ = v.BindEnv(key, envName(key))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// envName maps a nested key to its environment variable, e.g.
// anthropic.api_key -> ACA_ANTHROPIC_API_KEY.
func envName(key string) string {
	out := make([]byte, 0, len(key)+4)
	out = append(out, "ACA_"...)
	for i := 0; i < len(key); i++ {
		ch := key[i]
		switch {
		case ch == '.':
			out = append(out, '_')
		case ch >= 'a' && ch <= 'z':
			out = append(out, ch-'a'+'A')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m") // AI generation blocks the request
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/content-agent.db")

	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("anthropic.temperature", 0.7)

	v.SetDefault("openai.image_model", "dall-e-3")
	v.SetDefault("openai.image_size", "1792x1024")

	v.SetDefault("auth.nonce_lifetime", "12h")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.tick_cron", "0 * * * *") // hourly

	v.SetDefault("rate_limit.anthropic_requests_per_minute", 10)
	v.SetDefault("rate_limit.stock_photo_requests_per_hour", 50)
	v.SetDefault("rate_limit.wordpress_requests_per_minute", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("sources.rss.enabled", false)
	v.SetDefault("sources.rss.max_items", 10)
	v.SetDefault("sources.rss.max_age", "168h")
	v.SetDefault("sources.custom.enabled", true)

	v.SetDefault("wordpress.post_status", "publish")

	v.SetDefault("search_console.redirect_uri", "http://localhost:8080/aca/v1/gsc/callback")
	v.SetDefault("search_console.scopes", []string{"https://www.googleapis.com/auth/webmasters.readonly"})
	v.SetDefault("search_console.lookback_days", 28)
	v.SetDefault("search_console.query_limit", 25)

	v.SetDefault("license.verify_url", "https://api.gumroad.com/v2/licenses/verify")
	v.SetDefault("license.enforce", false)

	v.SetDefault("tracker.enabled", false)
	v.SetDefault("tracker.sheet_name", "Content")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required")
	}
	if c.Auth.AdminToken == "" {
		return fmt.Errorf("auth.admin_token is required")
	}
	if len(c.Auth.NonceSecret) < 32 {
		return fmt.Errorf("auth.nonce_secret must be at least 32 characters")
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.WordPress.PostStatus {
	case "", "publish", "draft":
	default:
		return fmt.Errorf("wordpress.post_status must be publish or draft, got %q", c.WordPress.PostStatus)
	}
	if c.License.Enforce && c.License.ProductID == "" {
		return fmt.Errorf("license.product_id is required when license.enforce is set")
	}
	return nil
}
