package source

import (
	"context"
	"sort"
	"time"
)

// Seed is one piece of inspiration passed to idea generation
type Seed struct {
	Text        string
	Link        string
	SourceType  string // rss, custom
	SourceName  string
	PublishedAt time.Time
}

// SeedSource defines the interface for inspiration sources
type SeedSource interface {
	// Name returns the unique name of this source
	Name() string

	// Type returns the source type (rss, custom)
	Type() string

	// Fetch retrieves seeds from the source
	Fetch(ctx context.Context) ([]Seed, error)
}

// Manager manages multiple seed sources
type Manager struct {
	sources []SeedSource
}

// NewManager creates a new source manager
func NewManager() *Manager {
	return &Manager{
		sources: make([]SeedSource, 0),
	}
}

// Register adds a source to the manager
func (m *Manager) Register(source SeedSource) {
	m.sources = append(m.sources, source)
}

// FetchAll fetches seeds from all sources concurrently. Newest seeds come
// first; undated seeds (keywords) keep their position at the end.
func (m *Manager) FetchAll(ctx context.Context) ([]Seed, []error) {
	type result struct {
		seeds []Seed
		err   error
	}

	results := make(chan result, len(m.sources))

	for _, source := range m.sources {
		go func(s SeedSource) {
			seeds, err := s.Fetch(ctx)
			results <- result{seeds: seeds, err: err}
		}(source)
	}

	var all []Seed
	var errs []error

	for range m.sources {
		r := <-results
		if r.err != nil {
			errs = append(errs, r.err)
		} else {
			all = append(all, r.seeds...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	return all, errs
}

// Texts returns up to max seed texts
func Texts(seeds []Seed, max int) []string {
	out := make([]string, 0, min(len(seeds), max))
	for _, s := range seeds {
		if len(out) == max {
			break
		}
		out = append(out, s.Text)
	}
	return out
}
