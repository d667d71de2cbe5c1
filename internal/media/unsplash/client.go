package unsplash

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
	defaultBaseURL = "https://api.unsplash.com"
)

// Photo represents an Unsplash photo
type Photo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	AltDesc     string `json:"alt_description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	URLs        URLs   `json:"urls"`
	User        User   `json:"user"`
	Links       Links  `json:"links"`
}

// URLs contains different size URLs for the photo
type URLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"` // 1080px width
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

// User represents the photographer
type User struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Links contains API links for the photo
type Links struct {
	HTML             string `json:"html"`
	Download         string `json:"download"`
	DownloadLocation string `json:"download_location"` // Use this to trigger download count
}

// SearchResult represents the API response for photo search
type SearchResult struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

// Client is the Unsplash API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Unsplash client
func NewClient(apiKey string, log *logger.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.WithComponent("unsplash"),
	}
}

// WithBaseURL points the client at another API host
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// SearchPhotos searches for photos matching the query
func (c *Client) SearchPhotos(ctx context.Context, query string, perPage int) ([]Photo, error) {
	if perPage <= 0 {
		perPage = 5
	}
	if perPage > 30 {
		perPage = 30
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("orientation", "landscape")
	params.Set("content_filter", "high")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Client-ID "+c.apiKey)
	req.Header.Set("Accept-Version", "v1")

	c.log.Debug().Str("query", query).Msg("Searching Unsplash photos")

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
		Int("total", result.Total).
		Int("returned", len(result.Results)).
		Msg("Search completed")

	return result.Results, nil
}

// TrackDownload pings the download endpoint, which Unsplash API guidelines
// require whenever a photo is used
func (c *Client) TrackDownload(ctx context.Context, photo *Photo) {
	if photo.Links.DownloadLocation == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photo.Links.DownloadLocation, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Client-ID "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("photo_id", photo.ID).Msg("Download tracking failed")
		return
	}
	resp.Body.Close()
}

// ImageURL returns a JPEG rendition no wider than width
func (p *Photo) ImageURL(width int) string {
	if p.URLs.Raw == "" {
		return p.URLs.Regular
	}
	u, err := url.Parse(p.URLs.Raw)
	if err != nil {
		return p.URLs.Regular
	}
	q := u.Query()
	q.Set("w", strconv.Itoa(width))
	q.Set("fm", "jpg")
	q.Set("q", "80")
	u.RawQuery = q.Encode()
	return u.String()
}

// Attribution returns the attribution text for a photo (required by Unsplash)
func (p *Photo) Attribution() string {
	return fmt.Sprintf("Photo by %s on Unsplash", p.User.Name)
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
