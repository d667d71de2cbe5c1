package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvName(t *testing.T) {
	assert.Equal(t, "ACA_ANTHROPIC_API_KEY", envName("anthropic.api_key"))
	assert.Equal(t, "ACA_SEARCH_CONSOLE_CLIENT_ID", envName("search_console.client_id"))
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
anthropic:
  api_key: test-key
sources:
  rss:
    enabled: true
    feeds:
      - name: go-blog
        url: https://go.dev/blog/feed.atom
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Anthropic.Model)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.TickCron)
	assert.True(t, cfg.Sources.RSS.Enabled)
	require.Len(t, cfg.Sources.RSS.Feeds, 1)
	assert.Equal(t, "go-blog", cfg.Sources.RSS.Feeds[0].Name)
	assert.Equal(t, 28, cfg.SearchConsole.LookbackDays)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ACA_AUTH_ADMIN_TOKEN", "from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.AdminToken)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Anthropic: AnthropicConfig{APIKey: "k"},
		Auth:      AuthConfig{AdminToken: "t", NonceSecret: "0123456789abcdef0123456789abcdef"},
		Database:  DatabaseConfig{Driver: "sqlite"},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing anthropic key", mutate: func(c *Config) { c.Anthropic.APIKey = "" }, wantErr: true},
		{name: "missing admin token", mutate: func(c *Config) { c.Auth.AdminToken = "" }, wantErr: true},
		{name: "short nonce secret", mutate: func(c *Config) { c.Auth.NonceSecret = "short" }, wantErr: true},
		{name: "unsupported driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "enforced license without product", mutate: func(c *Config) { c.License.Enforce = true }, wantErr: true},
		{name: "wordpress draft status", mutate: func(c *Config) { c.WordPress.PostStatus = "draft" }},
		{name: "wordpress future status", mutate: func(c *Config) { c.WordPress.PostStatus = "future" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWordPressEnabled(t *testing.T) {
	assert.False(t, WordPressConfig{}.Enabled())
	assert.True(t, WordPressConfig{BaseURL: "https://example.com", Username: "u", AppPassword: "p"}.Enabled())
}
