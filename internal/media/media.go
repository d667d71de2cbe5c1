// Package media sources featured images for drafts from stock photo
// libraries or AI generation, and converts them to embeddable data URIs.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/pkg/logger"
	"github.com/content-agent/pkg/ratelimit"
)

const (
	// MaxWidth is the widest featured image stored
	MaxWidth = 1200

	jpegQuality     = 85
	maxDownloadSize = 20 << 20
)

// Result is an image found by a provider. Either URL or Data is set.
type Result struct {
	URL         string
	Data        []byte
	SourceURL   string
	Alt         string
	Attribution string
}

// Provider finds one image for a search query. A nil result means nothing
// matched.
type Provider interface {
	Find(ctx context.Context, query string) (*Result, error)
}

// Builder creates a provider for an API key and the current settings
type Builder func(apiKey string, settings models.AppSettings) Provider

// Service picks the configured provider and prepares the image
type Service struct {
	builders   map[string]Builder
	fallback   map[string]string // API keys from config, used when settings have none
	limiter    *ratelimit.MultiLimiter
	httpClient *http.Client
	logger     *logger.Logger
}

// NewService creates a media service with the given provider builders
func NewService(builders map[string]Builder, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Service {
	return &Service{
		builders:   builders,
		fallback:   map[string]string{},
		limiter:    limiter,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     log.WithComponent("media"),
	}
}

// SetFallbackKey registers a configured API key for a provider
func (s *Service) SetFallbackKey(provider, apiKey string) {
	if apiKey != "" {
		s.fallback[provider] = apiKey
	}
}

// Fetch finds, downloads and encodes an image for the query. Provider
// "none" returns a nil image and no error.
func (s *Service) Fetch(ctx context.Context, settings models.AppSettings, query, alt string) (*models.FeaturedImage, error) {
	name := settings.ImageSourceProvider
	if name == "" || name == models.ImageProviderNone {
		return nil, nil
	}

	build, ok := s.builders[name]
	if !ok {
		return nil, service.New(service.CodeInvalidSetting, http.StatusBadRequest, "unknown image provider %q", name)
	}

	apiKey := settings.APIKeyFor(name)
	if apiKey == "" {
		apiKey = s.fallback[name]
	}
	if apiKey == "" {
		return nil, service.New(service.CodeMissingAPIKey, http.StatusBadRequest, "no API key configured for %s", name)
	}

	log := s.logger.WithProvider(name)

	if err := s.limiter.Wait(ctx, limiterFor(name)); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	found, err := build(apiKey, settings).Find(ctx, query)
	if err != nil {
		return nil, service.Wrap(err, service.CodeUpstream, http.StatusBadGateway, name+" request failed")
	}
	if found == nil {
		return nil, service.New(service.CodeNoImageFound, http.StatusNotFound, "no image found for %q", query)
	}

	data := found.Data
	if len(data) == 0 {
		if data, err = s.download(ctx, found.URL); err != nil {
			return nil, service.Wrap(err, service.CodeUpstream, http.StatusBadGateway, "image download failed")
		}
	}

	encoded, width, height, err := Encode(data)
	if err != nil {
		return nil, err
	}

	if found.Alt != "" && alt == "" {
		alt = found.Alt
	}

	log.Info().
		Str("query", query).
		Int("width", width).
		Int("height", height).
		Int("size_bytes", len(encoded)).
		Msg("Featured image prepared")

	return &models.FeaturedImage{
		Provider:    name,
		SourceURL:   found.SourceURL,
		DataURI:     "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(encoded),
		Alt:         alt,
		Attribution: found.Attribution,
		Width:       width,
		Height:      height,
	}, nil
}

func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxDownloadSize)
	}
	return data, nil
}

// Encode decodes an image, shrinks it to MaxWidth and re-encodes it as JPEG
func Encode(data []byte) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}

func limiterFor(provider string) string {
	switch provider {
	case models.ImageProviderPexels:
		return ratelimit.LimiterPexels
	case models.ImageProviderUnsplash:
		return ratelimit.LimiterUnsplash
	case models.ImageProviderPixabay:
		return ratelimit.LimiterPixabay
	case models.ImageProviderAI:
		return ratelimit.LimiterOpenAI
	}
	return provider
}

// DecodeDataURI splits a base64 data URI into its bytes and MIME type
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, strings.TrimSuffix(meta, ";base64"), nil
}
