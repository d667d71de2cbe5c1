package custom

import (
	"context"
	"strings"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/source"
	"github.com/content-agent/pkg/logger"
)

// Source implements SeedSource for configured focus keywords
type Source struct {
	keywords []string
	log      *logger.Logger
}

// New creates a new custom source
func New(cfg config.CustomConfig, log *logger.Logger) *Source {
	return &Source{
		keywords: cfg.Keywords,
		log:      log.WithSource("custom", "keywords"),
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return "custom-keywords"
}

// Type returns "custom"
func (s *Source) Type() string {
	return "custom"
}

// Fetch returns the configured keywords as seeds
func (s *Source) Fetch(ctx context.Context) ([]source.Seed, error) {
	seeds := make([]source.Seed, 0, len(s.keywords))
	for _, keyword := range s.keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		seeds = append(seeds, source.Seed{
			Text:       "Focus keyword: " + keyword,
			SourceType: "custom",
			SourceName: "keywords",
		})
	}

	s.log.Debug().Int("count", len(seeds)).Msg("Returned custom keyword seeds")

	return seeds, nil
}

// Ensure Source implements source.SeedSource
var _ source.SeedSource = (*Source)(nil)
