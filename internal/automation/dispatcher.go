// Package automation runs the unattended part of the pipeline on each
// scheduler tick, according to the automation mode in settings.
package automation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/pkg/logger"
)

// tickSlack absorbs cron jitter so an hourly job is not pushed to the
// following tick when the previous run finished a few seconds late
const tickSlack = 5 * time.Minute

// fullAutoInterval is the full-automatic cadence
const fullAutoInterval = 24 * time.Hour

// SettingsLoader provides the current settings
type SettingsLoader interface {
	Load(ctx context.Context) (models.AppSettings, error)
}

// Publisher publishes drafts
type Publisher interface {
	Publish(ctx context.Context, draftID uint) (*models.Draft, error)
	ProcessScheduled(ctx context.Context) (int, []error)
}

// IdeaGenerator proposes new ideas
type IdeaGenerator interface {
	Generate(ctx context.Context, count int) ([]*models.Idea, error)
}

// Drafter writes drafts for ideas
type Drafter interface {
	CreateFromIdea(ctx context.Context, ideaID uint) (*models.Draft, error)
}

// StyleAnalyzer refreshes the style guide
type StyleAnalyzer interface {
	Analyze(ctx context.Context) (*models.StyleGuide, error)
}

// RunResult summarizes one dispatcher run
type RunResult struct {
	Mode               models.AutomationMode `json:"mode"`
	ScheduledPublished int                   `json:"scheduledPublished"`
	IdeasGenerated     int                   `json:"ideasGenerated"`
	DraftsCreated      int                   `json:"draftsCreated"`
	PostsPublished     int                   `json:"postsPublished"`
	StyleAnalyzed      bool                  `json:"styleAnalyzed"`
	Errors             []string              `json:"errors"`
	Duration           time.Duration         `json:"-"`
}

// Busy reports whether the run did anything worth recording
func (r *RunResult) Busy() bool {
	return r.ScheduledPublished > 0 || r.IdeasGenerated > 0 || r.DraftsCreated > 0 ||
		r.PostsPublished > 0 || r.StyleAnalyzed || len(r.Errors) > 0
}

func (r *RunResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Dispatcher runs the automation steps
type Dispatcher struct {
	repository storage.Repository
	settings   SettingsLoader
	publisher  Publisher
	ideas      IdeaGenerator
	drafter    Drafter
	styles     StyleAnalyzer
	activity   *activity.Log
	log        *logger.Logger
	now        func() time.Time

	mu sync.Mutex
}

// NewDispatcher creates a dispatcher
func NewDispatcher(
	repo storage.Repository,
	settings SettingsLoader,
	publisher Publisher,
	ideas IdeaGenerator,
	drafter Drafter,
	styles StyleAnalyzer,
	act *activity.Log,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		repository: repo,
		settings:   settings,
		publisher:  publisher,
		ideas:      ideas,
		drafter:    drafter,
		styles:     styles,
		activity:   act,
		log:        log.WithComponent("automation"),
		now:        time.Now,
	}
}

// Run executes one tick. Item failures are collected in the result; only a
// failure to read settings or state aborts the run.
func (d *Dispatcher) Run(ctx context.Context) (*RunResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := d.now()
	now := start.UTC()

	settings, err := d.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	var state models.AutomationState
	if _, err := d.repository.GetOption(ctx, models.OptionAutomationState, &state); err != nil {
		return nil, fmt.Errorf("failed to load automation state: %w", err)
	}

	result := &RunResult{Mode: settings.Mode, Errors: []string{}}
	d.log.Info().Str("mode", string(settings.Mode)).Msg("Automation tick")

	// Scheduled drafts publish in every mode
	published, errs := d.publisher.ProcessScheduled(ctx)
	result.ScheduledPublished = published
	for _, err := range errs {
		result.fail("scheduled publish: %v", err)
	}

	if interval := models.FrequencyInterval(settings.AnalyzeContentFrequency); interval > 0 && due(state.LastStyleAnalysis, interval, now) {
		state.LastStyleAnalysis = &now
		if _, err := d.styles.Analyze(ctx); err != nil {
			result.fail("style analysis: %v", err)
		} else {
			result.StyleAnalyzed = true
		}
	}

	switch settings.Mode {
	case models.ModeSemiAutomatic:
		interval := models.FrequencyInterval(settings.SemiAutoIdeaFrequency)
		if interval > 0 && due(state.LastIdeaRun, interval, now) {
			state.LastIdeaRun = &now
			ideas, err := d.ideas.Generate(ctx, settings.SemiAutoIdeaCount)
			if err != nil {
				result.fail("idea generation: %v", err)
			}
			result.IdeasGenerated = len(ideas)
		}

	case models.ModeFullAutomatic:
		if due(state.LastFullAutoRun, fullAutoInterval, now) {
			state.LastFullAutoRun = &now
			d.runFullAuto(ctx, settings, result)
		}
	}

	state.LastTick = &now
	if err := d.repository.SetOption(ctx, models.OptionAutomationState, state); err != nil {
		result.fail("save state: %v", err)
	}

	result.Duration = time.Since(start)

	d.log.Info().
		Int("scheduled_published", result.ScheduledPublished).
		Int("ideas_generated", result.IdeasGenerated).
		Int("drafts_created", result.DraftsCreated).
		Int("posts_published", result.PostsPublished).
		Bool("style_analyzed", result.StyleAnalyzed).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("Automation tick completed")

	if result.Busy() {
		d.activity.Record(ctx, models.ActivityAutomationRun, summary(result), models.IconBot)
	}

	return result, nil
}

// runFullAuto generates the day's ideas, drafts them in creation order and
// publishes them when auto-publish is on
func (d *Dispatcher) runFullAuto(ctx context.Context, settings models.AppSettings, result *RunResult) {
	ideas, err := d.ideas.Generate(ctx, settings.FullAutoDailyPostCount)
	if err != nil {
		result.fail("idea generation: %v", err)
	}
	result.IdeasGenerated = len(ideas)

	for _, idea := range ideas {
		draft, err := d.drafter.CreateFromIdea(ctx, idea.ID)
		if err != nil {
			result.fail("draft for idea %d: %v", idea.ID, err)
			continue
		}
		result.DraftsCreated++

		if !settings.AutoPublish {
			continue
		}
		if _, err := d.publisher.Publish(ctx, draft.ID); err != nil {
			result.fail("publish draft %d: %v", draft.ID, err)
			continue
		}
		result.PostsPublished++
	}
}

// due reports whether interval has elapsed since last
func due(last *time.Time, interval time.Duration, now time.Time) bool {
	return last == nil || now.Sub(*last) >= interval-tickSlack
}

func summary(r *RunResult) string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(r.ScheduledPublished, "scheduled posts published")
	add(r.IdeasGenerated, "ideas generated")
	add(r.DraftsCreated, "drafts created")
	add(r.PostsPublished, "posts published")
	if r.StyleAnalyzed {
		parts = append(parts, "style guide refreshed")
	}
	add(len(r.Errors), "errors")
	return fmt.Sprintf("Automation (%s): %s", r.Mode, strings.Join(parts, ", "))
}
