package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database:  config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "app.db")},
		Anthropic: config.AnthropicConfig{APIKey: "test", Model: "claude-test", MaxTokens: 100},
		Auth: config.AuthConfig{
			AdminToken:    "admin",
			NonceSecret:   strings.Repeat("k", 32),
			NonceLifetime: "1h",
		},
		Scheduler: config.SchedulerConfig{Enabled: true, TickCron: "@every 1h"},
		RateLimit: config.RateLimitConfig{
			AnthropicRequestsPerMinute: 10,
			StockPhotoRequestsPerHour:  50,
			WordPressRequestsPerMinute: 60,
		},
		Sources: config.SourcesConfig{Custom: config.CustomConfig{Enabled: true, Keywords: []string{"golang"}}},
	}
}

func TestNewWiresLocalBackends(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Nil(t, a.GSC, "no oauth client configured")
	_, expires, err := a.Nonces.Issue()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	rec := httptest.NewRecorder()
	a.API().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	result, err := a.RunAutomation(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Busy())
}

func TestNewRejectsBadNonceLifetime(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.NonceLifetime = "forever"

	_, err := New(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}

func TestStartScheduler(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	c, err := a.StartScheduler()
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	a.Config.Scheduler.TickCron = "not a cron"
	_, err = a.StartScheduler()
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 5 * time.Second},
		{in: "90s", want: 90 * time.Second},
		{in: "2h", want: 2 * time.Hour},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in, 5*time.Second)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
