// Package app wires configuration into the services shared by the command
// line and the scheduler daemon.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/agent/clusters"
	"github.com/content-agent/internal/agent/drafter"
	"github.com/content-agent/internal/agent/ideas"
	"github.com/content-agent/internal/agent/publisher"
	"github.com/content-agent/internal/agent/styleguide"
	"github.com/content-agent/internal/ai"
	"github.com/content-agent/internal/api"
	"github.com/content-agent/internal/auth"
	"github.com/content-agent/internal/automation"
	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/license"
	"github.com/content-agent/internal/media"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/searchconsole"
	"github.com/content-agent/internal/settings"
	"github.com/content-agent/internal/source"
	"github.com/content-agent/internal/source/custom"
	"github.com/content-agent/internal/source/rss"
	"github.com/content-agent/internal/storage/sqlite"
	"github.com/content-agent/internal/tracker"
	"github.com/content-agent/internal/wordpress"
	"github.com/content-agent/pkg/logger"
	"github.com/content-agent/pkg/ratelimit"
)

// App holds every wired service
type App struct {
	Config *config.Config
	Log    *logger.Logger
	Repo   *sqlite.Repository

	Activity   *activity.Log
	License    *license.Service
	Settings   *settings.Store
	Styles     *styleguide.Agent
	Ideas      *ideas.Agent
	Drafts     *drafter.Agent
	Publisher  *publisher.Agent
	Clusters   *clusters.Agent
	Dispatcher *automation.Dispatcher
	Nonces     *auth.Nonces

	// GSC is nil when no Google OAuth client is configured
	GSC *searchconsole.OAuthManager
}

// New opens the database and builds the services
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	repo, err := sqlite.New(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repo.Migrate(); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Limits{
		AnthropicPerMinute: cfg.RateLimit.AnthropicRequestsPerMinute,
		StockPhotoPerHour:  cfg.RateLimit.StockPhotoRequestsPerHour,
		WordPressPerMinute: cfg.RateLimit.WordPressRequestsPerMinute,
	})
	gen := ai.NewGenerator(ai.NewClient(cfg.Anthropic, limiter, log), log)

	images := media.NewService(media.DefaultBuilders(cfg.OpenAI, log), limiter, log)
	images.SetFallbackKey(models.ImageProviderAI, cfg.OpenAI.APIKey)

	sources := source.NewManager()
	if cfg.Sources.RSS.Enabled {
		for _, src := range rss.NewMultiple(cfg.Sources.RSS, log) {
			sources.Register(src)
		}
	}
	if cfg.Sources.Custom.Enabled {
		sources.Register(custom.New(cfg.Sources.Custom, log))
	}

	a := &App{Config: cfg, Log: log, Repo: repo}
	a.Activity = activity.New(repo, log)
	a.License = license.NewService(cfg.License, repo, a.Activity, log)
	a.Settings = settings.NewStore(repo, a.Activity, a.License, cfg.License.Enforce, log)

	// Interface parameters must stay nil when a backend is not configured
	var postLister styleguide.PostLister
	var publishSite publisher.Site
	if cfg.WordPress.Enabled() {
		site := wordpress.NewClient(cfg.WordPress, limiter, log)
		postLister, publishSite = site, site
		log.Info().Str("base_url", cfg.WordPress.BaseURL).Msg("Publishing to remote WordPress site")
	}

	var queries ideas.QuerySource
	if cfg.SearchConsole.Enabled() {
		a.GSC = searchconsole.NewOAuthManager(cfg.SearchConsole, repo, log)
		queries = searchconsole.NewClient(a.GSC, limiter, log)
	}

	var tr tracker.Tracker
	sheet, err := tracker.NewSheetsTracker(ctx, cfg.Tracker, log)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Content calendar disabled")
	case sheet != nil:
		if err := sheet.InitializeSheet(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize content calendar sheet")
		}
		tr = sheet
	}

	a.Styles = styleguide.NewAgent(repo, gen, postLister, a.Activity, log)
	a.Ideas = ideas.NewAgent(repo, gen, sources, a.Styles, a.Settings, queries, a.Activity, ideas.Options{
		LookbackDays: cfg.SearchConsole.LookbackDays,
		QueryLimit:   cfg.SearchConsole.QueryLimit,
	}, log)
	a.Drafts = drafter.NewAgent(repo, gen, images, a.Settings, a.Styles, tr, a.Activity, log)
	a.Publisher = publisher.NewAgent(repo, publishSite, a.Settings, tr, a.Activity, log)
	a.Clusters = clusters.NewAgent(repo, gen, a.Activity, log)
	a.Dispatcher = automation.NewDispatcher(repo, a.Settings, a.Publisher, a.Ideas, a.Drafts, a.Styles, a.Activity, log)

	lifetime, err := ParseDuration(cfg.Auth.NonceLifetime, 12*time.Hour)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("invalid auth.nonce_lifetime: %w", err)
	}
	a.Nonces = auth.NewNonces(cfg.Auth.AdminToken, cfg.Auth.NonceSecret, lifetime)

	return a, nil
}

// API builds the REST server over the wired services
func (a *App) API() *api.Server {
	return api.NewServer(api.Deps{
		Nonces:     a.Nonces,
		Settings:   a.Settings,
		Styles:     a.Styles,
		Ideas:      a.Ideas,
		Drafts:     a.Drafts,
		Publisher:  a.Publisher,
		Clusters:   a.Clusters,
		Activity:   a.Activity,
		License:    a.License,
		Dispatcher: a.Dispatcher,
		GSC:        a.GSC,
	}, a.Log)
}

// RunAutomation runs one dispatcher tick, logging each failed step
func (a *App) RunAutomation(ctx context.Context) (*automation.RunResult, error) {
	result, err := a.Dispatcher.Run(ctx)
	if err != nil {
		a.Log.Error().Err(err).Msg("Automation run failed")
		return nil, err
	}
	for _, e := range result.Errors {
		a.Log.Warn().Str("error", e).Msg("Automation step failed")
	}
	return result, nil
}

// Close releases the database
func (a *App) Close() error {
	return a.Repo.Close()
}

// ParseDuration parses a configured duration, using def when empty
func ParseDuration(value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	return time.ParseDuration(value)
}
