package media

import (
	"context"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/media/openai"
	"github.com/content-agent/internal/media/pexels"
	"github.com/content-agent/internal/media/pixabay"
	"github.com/content-agent/internal/media/unsplash"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/pkg/logger"
)

type pexelsProvider struct{ client *pexels.Client }

func (p pexelsProvider) Find(ctx context.Context, query string) (*Result, error) {
	photo, err := p.client.FirstPhoto(ctx, query)
	if err != nil || photo == nil {
		return nil, err
	}
	return &Result{
		URL:         photo.ImageURL(),
		SourceURL:   photo.URL,
		Alt:         photo.Alt,
		Attribution: photo.Attribution(),
	}, nil
}

type unsplashProvider struct{ client *unsplash.Client }

func (p unsplashProvider) Find(ctx context.Context, query string) (*Result, error) {
	photo, err := p.client.FirstPhoto(ctx, query)
	if err != nil || photo == nil {
		return nil, err
	}
	p.client.TrackDownload(ctx, photo)
	return &Result{
		URL:         photo.ImageURL(MaxWidth),
		SourceURL:   photo.Links.HTML,
		Alt:         photo.AltDesc,
		Attribution: photo.Attribution(),
	}, nil
}

type pixabayProvider struct{ client *pixabay.Client }

func (p pixabayProvider) Find(ctx context.Context, query string) (*Result, error) {
	hit, err := p.client.FirstHit(ctx, query)
	if err != nil || hit == nil {
		return nil, err
	}
	return &Result{
		URL:         hit.ImageURL(),
		SourceURL:   hit.PageURL,
		Alt:         hit.Tags,
		Attribution: hit.Attribution(),
	}, nil
}

type aiProvider struct {
	client *openai.Client
	style  string
}

func (p aiProvider) Find(ctx context.Context, query string) (*Result, error) {
	img, err := p.client.Generate(ctx, query, p.style)
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:        img.Data,
		Attribution: "AI-generated image",
	}, nil
}

// DefaultBuilders wires the real provider clients
func DefaultBuilders(cfg config.OpenAIConfig, log *logger.Logger) map[string]Builder {
	return map[string]Builder{
		models.ImageProviderPexels: func(apiKey string, _ models.AppSettings) Provider {
			return pexelsProvider{client: pexels.NewClient(apiKey, log)}
		},
		models.ImageProviderUnsplash: func(apiKey string, _ models.AppSettings) Provider {
			return unsplashProvider{client: unsplash.NewClient(apiKey, log)}
		},
		models.ImageProviderPixabay: func(apiKey string, _ models.AppSettings) Provider {
			return pixabayProvider{client: pixabay.NewClient(apiKey, log)}
		},
		models.ImageProviderAI: func(apiKey string, s models.AppSettings) Provider {
			return aiProvider{
				client: openai.NewClient(apiKey, cfg.ImageModel, cfg.ImageSize, log),
				style:  s.AIImageStyle,
			}
		},
	}
}
