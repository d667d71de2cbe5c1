package styleguide

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/ai"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/internal/wordpress"
	"github.com/content-agent/pkg/logger"
)

// sampleSize is how many recent posts are analyzed
const sampleSize = 10

// PostLister reads published posts from a remote site
type PostLister interface {
	ListPublishedPosts(ctx context.Context, limit int) ([]wordpress.Post, error)
}

// Agent keeps the site's style guide
type Agent struct {
	repository storage.Repository
	generator  *ai.Generator
	site       PostLister
	activity   *activity.Log
	log        *logger.Logger
}

// NewAgent creates a style guide agent. site may be nil, in which case
// local published drafts are analyzed.
func NewAgent(repo storage.Repository, gen *ai.Generator, site PostLister, act *activity.Log, log *logger.Logger) *Agent {
	return &Agent{
		repository: repo,
		generator:  gen,
		site:       site,
		activity:   act,
		log:        log.WithComponent("styleguide"),
	}
}

// Get returns the stored guide, or an empty one
func (a *Agent) Get(ctx context.Context) (*models.StyleGuide, error) {
	guide := &models.StyleGuide{}
	if _, err := a.repository.GetOption(ctx, models.OptionStyleGuide, guide); err != nil {
		return nil, fmt.Errorf("failed to load style guide: %w", err)
	}
	return guide, nil
}

// Save overwrites the guide with manual edits, keeping the analysis time
func (a *Agent) Save(ctx context.Context, guide models.StyleGuide) (*models.StyleGuide, error) {
	current, err := a.Get(ctx)
	if err != nil {
		return nil, err
	}
	guide.LastAnalyzed = current.LastAnalyzed

	if err := a.repository.SetOption(ctx, models.OptionStyleGuide, guide); err != nil {
		return nil, fmt.Errorf("failed to save style guide: %w", err)
	}

	a.activity.Record(ctx, models.ActivityStyleUpdated, "Style guide updated", models.IconPalette)
	return &guide, nil
}

// Analyze derives a new guide from recent published posts. Custom
// instructions written by the user survive the analysis.
func (a *Agent) Analyze(ctx context.Context) (*models.StyleGuide, error) {
	samples, err := a.samples(ctx)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, service.New(service.CodeNoContent, http.StatusBadRequest, "no published posts to analyze")
	}

	a.log.Info().Int("samples", len(samples)).Msg("Analyzing writing style")

	guide, err := a.generator.AnalyzeStyle(ctx, samples)
	if err != nil {
		return nil, service.AIError(err)
	}

	current, err := a.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	guide.CustomInstructions = current.CustomInstructions
	guide.LastAnalyzed = &now

	if err := a.repository.SetOption(ctx, models.OptionStyleGuide, guide); err != nil {
		return nil, fmt.Errorf("failed to save style guide: %w", err)
	}

	a.activity.Recordf(ctx, models.ActivityStyleAnalyzed, models.IconPalette, "Style guide updated from %d posts", len(samples))
	return guide, nil
}

// samples returns plain-text bodies of recent published posts
func (a *Agent) samples(ctx context.Context) ([]string, error) {
	var bodies []string

	if a.site != nil {
		posts, err := a.site.ListPublishedPosts(ctx, sampleSize)
		if err != nil {
			return nil, service.Wrap(err, service.CodeUpstream, http.StatusBadGateway, "failed to read site posts")
		}
		for _, p := range posts {
			bodies = append(bodies, p.Content.Rendered)
		}
	} else {
		status := models.DraftStatusPublished
		filter := storage.DefaultDraftFilter()
		filter.Status = &status
		filter.Limit = sampleSize
		filter.OrderBy = "published_at"
		drafts, err := a.repository.ListDrafts(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list published drafts: %w", err)
		}
		for _, d := range drafts {
			bodies = append(bodies, d.Content)
		}
	}

	out := make([]string, 0, len(bodies))
	for _, body := range bodies {
		if text := PlainText(body); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

// PlainText extracts readable text from post HTML, one block per line
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " ")
	}
	return strings.Join(lines, "\n")
}
