package pixabay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/content-agent/pkg/logger"
)

const (
	defaultBaseURL = "https://pixabay.com/api/"

	// minPerPage is the smallest page size the API accepts
	minPerPage = 3
)

// Hit represents a Pixabay image
type Hit struct {
	ID            int64  `json:"id"`
	PageURL       string `json:"pageURL"`
	Tags          string `json:"tags"`
	WebformatURL  string `json:"webformatURL"` // 640px
	LargeImageURL string `json:"largeImageURL"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	User          string `json:"user"`
}

// SearchResult represents the API response for image search
type SearchResult struct {
	Total     int   `json:"total"`
	TotalHits int   `json:"totalHits"`
	Hits      []Hit `json:"hits"`
}

// Client is the Pixabay API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Pixabay client
func NewClient(apiKey string, log *logger.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.WithComponent("pixabay"),
	}
}

// WithBaseURL points the client at another API host
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Search searches for horizontal photos matching the query
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]Hit, error) {
	if perPage < minPerPage {
		perPage = minPerPage
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("image_type", "photo")
	params.Set("orientation", "horizontal")
	params.Set("safesearch", "true")
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.log.Debug().Str("query", query).Msg("Searching Pixabay images")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.Debug().
		Int("total", result.TotalHits).
		Int("returned", len(result.Hits)).
		Msg("Search completed")

	return result.Hits, nil
}

// FirstHit returns the top search result, or nil when nothing matched
func (c *Client) FirstHit(ctx context.Context, query string) (*Hit, error) {
	hits, err := c.Search(ctx, query, minPerPage)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0], nil
}

// ImageURL returns the large rendition, falling back to the web format
func (h *Hit) ImageURL() string {
	if h.LargeImageURL != "" {
		return h.LargeImageURL
	}
	return h.WebformatURL
}

// Attribution returns the credit line for the image
func (h *Hit) Attribution() string {
	return fmt.Sprintf("Image by %s on Pixabay", h.User)
}
