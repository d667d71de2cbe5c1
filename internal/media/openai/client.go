// Package openai generates featured images with the OpenAI Images API.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/content-agent/pkg/logger"
)

// Styles accepted by Generate
const (
	StylePhotorealistic = "photorealistic"
	StyleDigitalArt     = "digital_art"
)

// Client wraps the OpenAI SDK images endpoint
type Client struct {
	client openai.Client
	model  string
	size   string
	log    *logger.Logger
}

// NewClient creates an image client. Extra options (base URL, retries) are
// passed to the SDK.
func NewClient(apiKey, model, size string, log *logger.Logger, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
		size:   size,
		log:    log.WithComponent("openai_images"),
	}
}

// Image is a generated image
type Image struct {
	Data          []byte
	RevisedPrompt string
}

// Prompt builds the image prompt for a subject in the given style
func Prompt(subject, style string) string {
	switch style {
	case StyleDigitalArt:
		return fmt.Sprintf("A vibrant digital art illustration for a blog post header about: %s. Clean composition, no text or lettering.", subject)
	default:
		return fmt.Sprintf("A high quality photorealistic photograph for a blog post header about: %s. Natural lighting, wide landscape framing, no text or lettering.", subject)
	}
}

// Generate creates one image for the subject and returns its bytes
func (c *Client) Generate(ctx context.Context, subject, style string) (*Image, error) {
	imgStyle := openai.ImageGenerateParamsStyleNatural
	if style == StyleDigitalArt {
		imgStyle = openai.ImageGenerateParamsStyleVivid
	}

	c.log.Debug().Str("model", c.model).Str("style", style).Msg("Generating image")

	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         Prompt(subject, style),
		Model:          openai.ImageModel(c.model),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(c.size),
		Style:          imgStyle,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai images API error: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai images API returned no image")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.log.Info().Int("size_bytes", len(data)).Msg("Image generated")

	return &Image{Data: data, RevisedPrompt: resp.Data[0].RevisedPrompt}, nil
}
