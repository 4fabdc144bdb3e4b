// Package prompts turns scene text into short visual descriptions for image
// synthesis. Prompt generation is best-effort; the raw scene text is always
// available as a deterministic fallback.
package prompts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"clipforge/internal/config"
	"clipforge/internal/logging"
)

const (
	defaultTimeout = 120 * time.Second

	// sceneInputLimit bounds how much scene text is sent to the model.
	sceneInputLimit = 200
	// fallbackLimit bounds the deterministic raw-text fallback prompt.
	fallbackLimit = 100
	// minPlausibleResponse rejects degenerate completions in favor of the
	// fallback prompt.
	minPlausibleResponse = 10

	instruction = "Produce a short visual description suitable for image generation. " +
		"At most 100 characters. Be specific and concrete; avoid generic terms. " +
		"Respond with the description only."
)

// Config captures the runtime settings for the prompt generator.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// FromAppConfig derives prompt settings from the application configuration.
func FromAppConfig(cfg *config.Config) Config {
	return Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.ChatModel,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	}
}

// Generator produces one visual prompt per scene.
type Generator struct {
	api     openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGenerator constructs a prompt generator using the supplied configuration.
func NewGenerator(cfg Config, logger *slog.Logger, opts ...option.RequestOption) *Generator {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	requestOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(base))
	}
	requestOpts = append(requestOpts, opts...)
	return &Generator{
		api:     openai.NewClient(requestOpts...),
		model:   strings.TrimSpace(cfg.Model),
		timeout: timeout,
		logger:  logger,
	}
}

// Generate returns a visual prompt for the scene text. It never fails: when
// the completion service is unavailable or returns an implausibly short
// answer, the first characters of the raw scene text serve as the prompt.
func (g *Generator) Generate(ctx context.Context, sceneText string) string {
	sceneText = strings.TrimSpace(sceneText)
	if sceneText == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	completion, err := g.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage(truncate(sceneText, sceneInputLimit)),
		},
	})
	if err != nil {
		g.logger.Warn("visual prompt generation failed, using scene text",
			logging.Error(err))
		return Fallback(sceneText)
	}
	if len(completion.Choices) == 0 {
		g.logger.Warn("visual prompt generation returned no choices, using scene text")
		return Fallback(sceneText)
	}
	prompt := strings.TrimSpace(completion.Choices[0].Message.Content)
	if len(prompt) < minPlausibleResponse {
		g.logger.Warn("visual prompt implausibly short, using scene text",
			logging.String("response", prompt))
		return Fallback(sceneText)
	}
	return prompt
}

// Fallback returns the deterministic prompt derived from raw scene text.
func Fallback(sceneText string) string {
	return truncate(strings.TrimSpace(sceneText), fallbackLimit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
