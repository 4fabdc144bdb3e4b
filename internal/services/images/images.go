// Package images synthesizes scene illustrations through the OpenAI image
// API and downloads the generated assets.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

const defaultTimeout = 120 * time.Second

// styleAdjectives maps a request style to the adjectives appended to every
// prompt. Unrecognized styles fall back to realistic.
var styleAdjectives = map[string]string{
	"realistic":   "photorealistic, high quality, detailed",
	"cinematic":   "cinematic lighting, dramatic, film still, widescreen",
	"animated":    "animated style, vibrant colors, expressive, detailed illustration",
	"cartoon":     "cartoon style, bold outlines, flat colors, playful",
	"fantasy":     "fantasy art, ethereal, magical atmosphere, richly detailed",
	"digital-art": "digital art, clean lines, vivid palette, concept art",
	"3d":          "3d render, octane render, soft global illumination, high detail",
}

// StyleAdjectives returns the adjective suffix for a style name.
func StyleAdjectives(style string) string {
	if adjectives, ok := styleAdjectives[strings.ToLower(strings.TrimSpace(style))]; ok {
		return adjectives
	}
	return styleAdjectives["realistic"]
}

// Config captures the runtime settings for the image service.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// FromAppConfig derives image settings from the application configuration.
func FromAppConfig(cfg *config.Config) Config {
	return Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.ImageModel,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	}
}

// Client wraps the image generation endpoint plus the asset download.
type Client struct {
	api        openai.Client
	model      string
	timeout    time.Duration
	downloader *http.Client
}

// NewClient constructs an image client using the supplied configuration.
func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	requestOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(base))
	}
	requestOpts = append(requestOpts, opts...)
	return &Client{
		api:        openai.NewClient(requestOpts...),
		model:      strings.TrimSpace(cfg.Model),
		timeout:    timeout,
		downloader: &http.Client{Timeout: timeout},
	}
}

// SetDownloader overrides the HTTP client used to fetch generated assets.
func (c *Client) SetDownloader(client *http.Client) {
	if client != nil {
		c.downloader = client
	}
}

// Synthesize generates one square image for the styled prompt and returns
// the downloaded bytes. Failures propagate to the caller; callers treat them
// as scene-scoped and continue without the image.
func (c *Client) Synthesize(ctx context.Context, prompt, style string) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, services.Wrap(services.ErrValidation, "images", "synthesize", "prompt required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	styled := prompt + ", " + StyleAdjectives(style)
	resp, err := c.api.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:          openai.ImageModel(c.model),
		Prompt:         styled,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		Quality:        openai.ImageGenerateParamsQualityHD,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return nil, services.Wrap(services.ExternalMarker(err), "images", "synthesize", "image request failed", err)
	}
	if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
		return nil, services.Wrap(services.ErrExternalTool, "images", "synthesize", "response carried no image url", nil)
	}
	return c.download(ctx, resp.Data[0].URL)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "images", "download", "build request", err)
	}
	resp, err := c.downloader.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ExternalMarker(err), "images", "download", "fetch generated image", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalTool, "images", "download",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "images", "download", "read image payload", err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "images", "download", "empty image payload", nil)
	}
	return data, nil
}
