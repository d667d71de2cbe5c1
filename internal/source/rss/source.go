package rss

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/source"
	"github.com/content-agent/pkg/logger"
)

var stripTags = bluemonday.StrictPolicy()

// Source implements SeedSource for RSS feeds
type Source struct {
	name     string
	url      string
	maxItems int
	maxAge   time.Duration
	parser   *gofeed.Parser
	log      *logger.Logger
}

// New creates a new RSS source for a single feed
func New(feed config.RSSFeed, maxItems int, maxAge time.Duration, log *logger.Logger) *Source {
	return &Source{
		name:     feed.Name,
		url:      feed.URL,
		maxItems: maxItems,
		maxAge:   maxAge,
		parser:   gofeed.NewParser(),
		log:      log.WithSource("rss", feed.Name),
	}
}

// NewMultiple creates multiple RSS sources from config
func NewMultiple(cfg config.RSSConfig, log *logger.Logger) []*Source {
	maxAge, err := time.ParseDuration(cfg.MaxAge)
	if err != nil {
		maxAge = 7 * 24 * time.Hour
	}
	sources := make([]*Source, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		sources = append(sources, New(feed, cfg.MaxItems, maxAge, log))
	}
	return sources
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}

// Type returns "rss"
func (s *Source) Type() string {
	return "rss"
}

// Fetch retrieves recent headlines from the feed
func (s *Source) Fetch(ctx context.Context) ([]source.Seed, error) {
	s.log.Debug().Str("url", s.url).Msg("Fetching RSS feed")

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", s.name, err)
	}

	seeds := make([]source.Seed, 0, len(feed.Items))

	for _, item := range feed.Items {
		if s.maxItems > 0 && len(seeds) >= s.maxItems {
			break
		}

		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
			if s.maxAge > 0 && time.Since(publishedAt) > s.maxAge {
				continue
			}
		}

		title := cleanText(item.Title)
		if title == "" {
			continue
		}

		seeds = append(seeds, source.Seed{
			Text:        title,
			Link:        item.Link,
			SourceType:  "rss",
			SourceName:  s.name,
			PublishedAt: publishedAt,
		})
	}

	s.log.Info().
		Int("count", len(seeds)).
		Str("feed", s.name).
		Msg("Fetched RSS headlines")

	return seeds, nil
}

// cleanText removes HTML tags, entities and extra whitespace
func cleanText(text string) string {
	text = html.UnescapeString(stripTags.Sanitize(text))
	return strings.Join(strings.Fields(text), " ")
}

// Ensure Source implements source.SeedSource
var _ source.SeedSource = (*Source)(nil)
