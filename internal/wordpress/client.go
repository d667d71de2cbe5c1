// Package wordpress publishes drafts to a remote WordPress site over the
// core REST API using application passwords.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/pkg/logger"
	"github.com/content-agent/pkg/ratelimit"
)

const apiPrefix = "/wp-json/wp/v2"

// Client handles WordPress REST API requests
type Client struct {
	baseURL     string
	username    string
	appPassword string
	postStatus  string
	httpClient  *http.Client
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewClient creates a new WordPress API client
func NewClient(cfg config.WordPressConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	status := cfg.PostStatus
	if status == "" {
		status = "publish"
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		username:    cfg.Username,
		appPassword: cfg.AppPassword,
		postStatus:  status,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		rateLimiter: limiter,
		log:         log.WithComponent("wordpress"),
	}
}

// do performs an authenticated HTTP request against the REST API
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterWordPress); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.appPassword)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Making WordPress API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Msg("WordPress API response")

	return resp, nil
}

// apiError is the WP_Error body returned by the REST API
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func readError(resp *http.Response, action string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var wpErr apiError
	if json.Unmarshal(body, &wpErr) == nil && wpErr.Code != "" {
		return fmt.Errorf("failed to %s: %s (%s)", action, wpErr.Message, wpErr.Code)
	}
	return fmt.Errorf("failed to %s: %s - %s", action, resp.Status, string(body))
}

// Rendered is a WordPress rendered field
type Rendered struct {
	Rendered string `json:"rendered"`
}

// Post is the subset of a WordPress post the agent reads
type Post struct {
	ID      int64    `json:"id"`
	Link    string   `json:"link"`
	Status  string   `json:"status"`
	Title   Rendered `json:"title"`
	Content Rendered `json:"content"`
}

// Media is an uploaded attachment
type Media struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// PostRequest is the body for creating a post
type PostRequest struct {
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Status        string            `json:"status"`
	Slug          string            `json:"slug,omitempty"`
	Excerpt       string            `json:"excerpt,omitempty"`
	FeaturedMedia int64             `json:"featured_media,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// SEOMeta returns the post meta keys the given SEO plugin reads
func SEOMeta(plugin, title, description string, keywords []string) map[string]string {
	focus := ""
	if len(keywords) > 0 {
		focus = keywords[0]
	}
	switch plugin {
	case models.SEOPluginYoast:
		return map[string]string{
			"_yoast_wpseo_title":    title,
			"_yoast_wpseo_metadesc": description,
			"_yoast_wpseo_focuskw":  focus,
		}
	case models.SEOPluginRankMath:
		return map[string]string{
			"rank_math_title":         title,
			"rank_math_description":   description,
			"rank_math_focus_keyword": strings.Join(keywords, ","),
		}
	}
	return nil
}

// CreatePost creates a post with the configured status
func (c *Client) CreatePost(ctx context.Context, post PostRequest) (*Post, error) {
	if post.Status == "" {
		post.Status = c.postStatus
	}

	data, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/posts", bytes.NewReader(data), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		err := readError(resp, "create post")
		c.log.Error().Err(err).Int("status", resp.StatusCode).Msg("Failed to create post")
		return nil, err
	}

	var created Post
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode post: %w", err)
	}

	c.log.Info().
		Int64("post_id", created.ID).
		Str("link", created.Link).
		Msg("Post created successfully")

	return &created, nil
}

// UploadMedia uploads an image and sets its alt text
func (c *Client) UploadMedia(ctx context.Context, filename, mimeType string, data []byte, alt string) (*Media, error) {
	resp, err := c.do(ctx, http.MethodPost, "/media", bytes.NewReader(data), map[string]string{
		"Content-Type":        mimeType,
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, readError(resp, "upload media")
	}

	var media Media
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, fmt.Errorf("failed to decode media: %w", err)
	}

	if alt != "" {
		payload, _ := json.Marshal(map[string]string{"alt_text": alt})
		altResp, err := c.do(ctx, http.MethodPost, "/media/"+strconv.FormatInt(media.ID, 10), bytes.NewReader(payload), map[string]string{
			"Content-Type": "application/json",
		})
		if err != nil {
			c.log.Warn().Err(err).Int64("media_id", media.ID).Msg("Failed to set alt text")
		} else {
			altResp.Body.Close()
		}
	}

	c.log.Info().
		Int64("media_id", media.ID).
		Int("size_bytes", len(data)).
		Msg("Media uploaded")

	return &media, nil
}

// ListPublishedPosts returns the most recent published posts
func (c *Client) ListPublishedPosts(ctx context.Context, limit int) ([]Post, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("status", "publish")
	params.Set("orderby", "date")
	params.Set("_fields", "id,link,status,title,content")

	resp, err := c.do(ctx, http.MethodGet, "/posts?"+params.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp, "list posts")
	}

	var posts []Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}
