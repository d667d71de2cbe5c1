package ideas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/ai"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/searchconsole"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/source"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/internal/textutil"
	"github.com/content-agent/pkg/logger"
)

const (
	DefaultCount = 5
	MaxCount     = 20

	maxSeeds = 30
)

// StyleGuides provides the current style guide
type StyleGuides interface {
	Get(ctx context.Context) (*models.StyleGuide, error)
}

// SettingsLoader provides the current settings
type SettingsLoader interface {
	Load(ctx context.Context) (models.AppSettings, error)
}

// QuerySource reads top search queries for a site
type QuerySource interface {
	TopQueries(ctx context.Context, siteURL string, days, limit int) ([]searchconsole.QueryRow, error)
}

// Options tunes Search Console idea generation
type Options struct {
	LookbackDays int
	QueryLimit   int
}

// Agent proposes and manages content ideas
type Agent struct {
	repository storage.Repository
	generator  *ai.Generator
	sources    *source.Manager
	styles     StyleGuides
	settings   SettingsLoader
	queries    QuerySource
	activity   *activity.Log
	opts       Options
	log        *logger.Logger
}

// NewAgent creates a new ideas agent. sources and queries may be nil.
func NewAgent(
	repo storage.Repository,
	gen *ai.Generator,
	sources *source.Manager,
	styles StyleGuides,
	settings SettingsLoader,
	queries QuerySource,
	act *activity.Log,
	opts Options,
	log *logger.Logger,
) *Agent {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 28
	}
	if opts.QueryLimit <= 0 {
		opts.QueryLimit = 25
	}
	return &Agent{
		repository: repo,
		generator:  gen,
		sources:    sources,
		styles:     styles,
		settings:   settings,
		queries:    queries,
		activity:   act,
		opts:       opts,
		log:        log.WithComponent("ideas"),
	}
}

// ClampCount applies the default and upper bound to a requested count
func ClampCount(count int) int {
	if count <= 0 {
		return DefaultCount
	}
	return min(count, MaxCount)
}

// List returns ideas matching the filter
func (a *Agent) List(ctx context.Context, filter storage.IdeaFilter) ([]*models.Idea, error) {
	ideas, err := a.repository.ListIdeas(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return ideas, nil
}

// Get returns one idea
func (a *Agent) Get(ctx context.Context, id uint) (*models.Idea, error) {
	idea, err := a.repository.GetIdeaByID(ctx, id)
	if err != nil {
		return nil, service.FromStorage(err, "idea", id)
	}
	return idea, nil
}

// Generate asks the AI for new ideas seeded by the configured sources
func (a *Agent) Generate(ctx context.Context, count int) ([]*models.Idea, error) {
	count = ClampCount(count)

	guide, existing, err := a.context(ctx)
	if err != nil {
		return nil, err
	}

	var seeds []string
	if a.sources != nil {
		fetched, errs := a.sources.FetchAll(ctx)
		for _, err := range errs {
			a.log.Warn().Err(err).Msg("Seed source failed")
		}
		seeds = source.Texts(fetched, maxSeeds)
	}

	a.log.Info().
		Int("count", count).
		Int("seeds", len(seeds)).
		Int("existing", len(existing)).
		Msg("Generating ideas")

	generated, err := a.generator.GenerateIdeas(ctx, ai.IdeaRequest{
		Count:      count,
		StyleGuide: guide,
		Existing:   existing,
		Seeds:      seeds,
	})
	if err != nil {
		return nil, service.AIError(err)
	}

	ideas, err := a.save(ctx, generated, models.IdeaSourceAI, existing, count)
	if err != nil {
		return nil, err
	}

	a.activity.Recordf(ctx, models.ActivityIdeasGenerated, models.IconLightbulb, "Generated %d new ideas", len(ideas))
	return ideas, nil
}

// GenerateSimilar asks the AI for ideas related to an existing one
func (a *Agent) GenerateSimilar(ctx context.Context, ideaID uint, count int) ([]*models.Idea, error) {
	count = ClampCount(count)

	base, err := a.Get(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	guide, existing, err := a.context(ctx)
	if err != nil {
		return nil, err
	}

	generated, err := a.generator.GenerateSimilarIdeas(ctx, base, count, guide, existing)
	if err != nil {
		return nil, service.AIError(err)
	}

	ideas, err := a.save(ctx, generated, models.IdeaSourceAI, existing, count)
	if err != nil {
		return nil, err
	}

	a.activity.Recordf(ctx, models.ActivityIdeasGenerated, models.IconLightbulb,
		"Generated %d ideas similar to %q", len(ideas), base.Title)
	return ideas, nil
}

// AddManual stores user-written titles as pending ideas
func (a *Agent) AddManual(ctx context.Context, titles []string) ([]*models.Idea, error) {
	existing, err := a.repository.ListIdeaTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list idea titles: %w", err)
	}

	kept := textutil.Dedupe(titles, textutil.KeySet(existing))
	if len(kept) == 0 {
		return nil, service.New(service.CodeInvalidTitle, http.StatusBadRequest, "no new idea titles given")
	}

	ideas := make([]*models.Idea, 0, len(kept))
	for _, title := range kept {
		idea := &models.Idea{
			Title:    title,
			Keywords: models.StringSlice{},
			Status:   models.IdeaStatusPending,
			Source:   models.IdeaSourceManual,
		}
		if err := a.repository.CreateIdea(ctx, idea); err != nil {
			return ideas, fmt.Errorf("failed to save idea: %w", err)
		}
		ideas = append(ideas, idea)
	}

	a.activity.Recordf(ctx, models.ActivityIdeaAdded, models.IconLightbulb, "Added %d ideas manually", len(ideas))
	return ideas, nil
}

// GenerateFromSearchConsole turns the site's top search queries into ideas
func (a *Agent) GenerateFromSearchConsole(ctx context.Context, count int) ([]*models.Idea, error) {
	count = ClampCount(count)

	if a.queries == nil {
		return nil, notConnected()
	}

	settings, err := a.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if settings.SearchConsoleSiteURL == "" {
		return nil, service.New(service.CodeInvalidSetting, http.StatusBadRequest, "searchConsoleSiteUrl is not set")
	}

	rows, err := a.queries.TopQueries(ctx, settings.SearchConsoleSiteURL, a.opts.LookbackDays, a.opts.QueryLimit)
	if errors.Is(err, searchconsole.ErrNotConnected) {
		return nil, notConnected()
	}
	if err != nil {
		return nil, service.Wrap(err, service.CodeUpstream, http.StatusBadGateway, "search console request failed")
	}
	if len(rows) == 0 {
		return nil, service.New(service.CodeNoContent, http.StatusBadRequest, "search console returned no queries")
	}

	guide, existing, err := a.context(ctx)
	if err != nil {
		return nil, err
	}

	queries := make([]ai.SearchQuery, 0, len(rows))
	for _, r := range rows {
		queries = append(queries, ai.SearchQuery{
			Query:       r.Query,
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			Position:    r.Position,
		})
	}

	generated, err := a.generator.GenerateIdeasFromQueries(ctx, queries, a.opts.LookbackDays, count, guide, existing)
	if err != nil {
		return nil, service.AIError(err)
	}

	ideas, err := a.save(ctx, generated, models.IdeaSourceSearchConsole, existing, count)
	if err != nil {
		return nil, err
	}

	a.activity.Recordf(ctx, models.ActivityIdeasGenerated, models.IconLightbulb,
		"Generated %d ideas from %d search queries", len(ideas), len(rows))
	return ideas, nil
}

// UpdateStatus moves an idea to a new status
func (a *Agent) UpdateStatus(ctx context.Context, id uint, status models.IdeaStatus) (*models.Idea, error) {
	if !status.Valid() {
		return nil, service.New(service.CodeInvalidStatus, http.StatusBadRequest, "unknown idea status %q", status)
	}

	idea, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !idea.Status.CanTransition(status) {
		return nil, service.InvalidTransition("idea %d cannot move from %s to %s", id, idea.Status, status)
	}

	previous := idea.Status
	idea.Status = status
	if err := a.repository.UpdateIdea(ctx, idea); err != nil {
		return nil, fmt.Errorf("failed to update idea: %w", err)
	}

	a.log.WithIdeaID(id).Info().
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("Idea status changed")
	a.activity.Recordf(ctx, models.ActivityIdeaStatus, statusIcon(status), "Idea %q marked %s", idea.Title, status)

	return idea, nil
}

// Delete removes an idea
func (a *Agent) Delete(ctx context.Context, id uint) error {
	idea, err := a.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := a.repository.DeleteIdea(ctx, id); err != nil {
		return service.FromStorage(err, "idea", id)
	}
	a.activity.Recordf(ctx, models.ActivityIdeaDeleted, models.IconTrash, "Idea %q deleted", idea.Title)
	return nil
}

// context loads the style guide and existing titles used in prompts
func (a *Agent) context(ctx context.Context) (*models.StyleGuide, []string, error) {
	var guide *models.StyleGuide
	if a.styles != nil {
		var err error
		if guide, err = a.styles.Get(ctx); err != nil {
			return nil, nil, err
		}
	}

	existing, err := a.repository.ListIdeaTitles(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list idea titles: %w", err)
	}
	return guide, existing, nil
}

// save stores up to limit generated ideas that are not duplicates
func (a *Agent) save(ctx context.Context, generated []ai.GeneratedIdea, src models.IdeaSource, existing []string, limit int) ([]*models.Idea, error) {
	seen := textutil.KeySet(existing)
	ideas := make([]*models.Idea, 0, len(generated))

	for _, g := range generated {
		if len(ideas) == limit {
			break
		}
		title := strings.TrimSpace(g.Title)
		key := textutil.TitleKey(title)
		if key == "" || seen[key] {
			a.log.Debug().Str("title", title).Msg("Skipping duplicate idea")
			continue
		}
		seen[key] = true

		idea := &models.Idea{
			Title:    title,
			Keywords: cleanKeywords(g.Keywords),
			Status:   models.IdeaStatusPending,
			Source:   src,
		}
		if err := a.repository.CreateIdea(ctx, idea); err != nil {
			return ideas, fmt.Errorf("failed to save idea: %w", err)
		}
		ideas = append(ideas, idea)
	}

	a.log.Info().
		Int("generated", len(generated)).
		Int("saved", len(ideas)).
		Str("source", string(src)).
		Msg("Ideas saved")

	return ideas, nil
}

func cleanKeywords(in []string) models.StringSlice {
	out := make(models.StringSlice, 0, len(in))
	for _, k := range in {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func statusIcon(status models.IdeaStatus) string {
	switch status {
	case models.IdeaStatusApproved:
		return models.IconCheck
	case models.IdeaStatusRejected:
		return models.IconTrash
	}
	return models.IconLightbulb
}

func notConnected() error {
	return service.New(service.CodeGSCNotConnected, http.StatusConflict, "Google Search Console is not connected")
}
