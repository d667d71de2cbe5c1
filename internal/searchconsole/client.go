package searchconsole

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	gsc "google.golang.org/api/searchconsole/v1"

	"github.com/content-agent/pkg/logger"
	"github.com/content-agent/pkg/ratelimit"
)

// QueryRow is one search query with its performance over the period
type QueryRow struct {
	Query       string  `json:"query"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// Client reads Search Analytics data
type Client struct {
	oauth       *OAuthManager
	rateLimiter *ratelimit.MultiLimiter
	opts        []option.ClientOption
	log         *logger.Logger
}

// NewClient creates a Search Console client. Extra options are passed to
// the Google API client.
func NewClient(oauth *OAuthManager, limiter *ratelimit.MultiLimiter, log *logger.Logger, opts ...option.ClientOption) *Client {
	return &Client{
		oauth:       oauth,
		rateLimiter: limiter,
		opts:        opts,
		log:         log.WithComponent("searchconsole"),
	}
}

// TopQueries returns the site's top queries by clicks over the last days
func (c *Client) TopQueries(ctx context.Context, siteURL string, days, limit int) ([]QueryRow, error) {
	if siteURL == "" {
		return nil, fmt.Errorf("search console site URL is not set")
	}

	ts, err := c.oauth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterGoogle); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, c.opts...)
	svc, err := gsc.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create search console service: %w", err)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	resp, err := svc.Searchanalytics.Query(siteURL, &gsc.SearchAnalyticsQueryRequest{
		StartDate:  start.Format("2006-01-02"),
		EndDate:    end.Format("2006-01-02"),
		Dimensions: []string{"query"},
		RowLimit:   int64(limit),
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search analytics query failed: %w", err)
	}

	rows := make([]QueryRow, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		if len(r.Keys) == 0 {
			continue
		}
		rows = append(rows, QueryRow{
			Query:       r.Keys[0],
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			CTR:         r.Ctr,
			Position:    r.Position,
		})
	}

	c.log.Info().
		Str("site", siteURL).
		Int("days", days).
		Int("rows", len(rows)).
		Msg("Fetched top queries")

	return rows, nil
}
