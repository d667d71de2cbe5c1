package pexels

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

const defaultBaseURL = "https://api.pexels.com/v1"

// Photo represents a Pexels photo
type Photo struct {
	ID              int64  `json:"id"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	URL             string `json:"url"` // page on pexels.com
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Alt             string `json:"alt"`
	Src             Src    `json:"src"`
}

// Src contains the sized renditions of a photo
type Src struct {
	Original  string `json:"original"`
	Large2x   string `json:"large2x"`
	Large     string `json:"large"` // 940px wide
	Medium    string `json:"medium"`
	Landscape string `json:"landscape"` // 1200x627 crop
}

// SearchResult represents the API response for photo search
type SearchResult struct {
	TotalResults int     `json:"total_results"`
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	Photos       []Photo `json:"photos"`
}

// Client is the Pexels API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Pexels client
func NewClient(apiKey string, log *logger.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.WithComponent("pexels"),
	}
}

// WithBaseURL points the client at another API host
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// SearchPhotos searches for landscape photos matching the query
func (c *Client) SearchPhotos(ctx context.Context, query string, perPage int) ([]Photo, error) {
	if perPage <= 0 {
		perPage = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	c.log.Debug().Str("query", query).Msg("Searching Pexels photos")

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
		Int("total", result.TotalResults).
		Int("returned", len(result.Photos)).
		Msg("Search completed")

	return result.Photos, nil
}

// FirstPhoto returns the top search result, or nil when nothing matched
func (c *Client) FirstPhoto(ctx context.Context, query string) (*Photo, error) {
	photos, err := c.SearchPhotos(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, nil
	}
	return &photos[0], nil
}

// ImageURL returns the largest rendition that does not need upscaling
func (p *Photo) ImageURL() string {
	if p.Src.Large2x != "" {
		return p.Src.Large2x
	}
	if p.Src.Large != "" {
		return p.Src.Large
	}
	return p.Src.Original
}

// Attribution returns the credit line Pexels asks for
func (p *Photo) Attribution() string {
	return fmt.Sprintf("Photo by %s on Pexels", p.Photographer)
}
