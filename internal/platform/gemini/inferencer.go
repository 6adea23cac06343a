package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/beargallbladder/golfswarm/internal/generation"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

// retryBaseDelay is the first backoff interval for transient failures.
const retryBaseDelay = 2 * time.Second

// GeminiInferencer implements the generation.Inferencer interface using
// Google's Gemini API.
type GeminiInferencer struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

// NewGeminiInferencer creates a new GeminiInferencer with the provided
// dependencies. It validates the configuration and constructs the API
// client.
func NewGeminiInferencer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiInferencer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &GeminiInferencer{
		logger: logger.With("component", "gemini_inferencer"),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Infer sends the prompt and optional media attachment to the Gemini API
// and returns the response text. Every call carries the configured timeout;
// transient failures retry with exponential backoff up to MaxRetries.
func (g *GeminiInferencer) Infer(ctx context.Context, prompt string, media []byte, mimeType string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", generation.ErrInferenceFailed)
	}

	timeout := g.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if len(media) > 0 {
		parts = append(parts, genai.NewPartFromBytes(media, mimeType))
	}
	contents := []*genai.Content{{Parts: parts}}

	var text string
	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(retryBaseDelay))
	err := retry.Do(callCtx, backoff, func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
		if err != nil {
			// API-level failures are assumed transient.
			g.logger.WarnContext(ctx, "gemini API call failed", "error", err)
			return retry.RetryableError(fmt.Errorf("%w: %v", generation.ErrTransientFailure, err))
		}

		if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
		}

		if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return fmt.Errorf("%w", generation.ErrContentBlocked)
		}

		text = resp.Text()
		if text == "" {
			return fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
		}

		return nil
	})
	if err != nil {
		if callCtx.Err() != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, callCtx.Err())
		}
		return "", err
	}

	g.logger.DebugContext(ctx, "gemini inference succeeded",
		"response_length", len(text),
		"has_media", len(media) > 0)

	return text, nil
}
