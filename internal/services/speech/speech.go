// Package speech synthesizes narration audio through the OpenAI speech API.
package speech

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

const defaultTimeout = 120 * time.Second

// Config captures the runtime settings for the speech service.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// FromAppConfig derives speech settings from the application configuration.
func FromAppConfig(cfg *config.Config) Config {
	return Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.SpeechModel,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	}
}

// Client wraps the text-to-speech endpoint.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
}

// NewClient constructs a speech client using the supplied configuration.
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
		api:     openai.NewClient(requestOpts...),
		model:   strings.TrimSpace(cfg.Model),
		timeout: timeout,
	}
}

// Synthesize converts the script into MP3 narration audio using the given
// voice. The full audio payload is buffered in memory.
func (c *Client) Synthesize(ctx context.Context, script, voice string) ([]byte, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil, services.Wrap(services.ErrValidation, "narration", "synthesize", "script required", nil)
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		return nil, services.Wrap(services.ErrValidation, "narration", "synthesize", "voice required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(c.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		Input:          script,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, services.Wrap(services.ExternalMarker(err), "narration", "synthesize", "speech request failed", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "narration", "synthesize", "read speech payload", err)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "narration", "synthesize", "empty speech payload", nil)
	}
	return audio, nil
}
