package gemini

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/beargallbladder/golfswarm/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewGeminiInferencer(t *testing.T) {
	ctx := context.Background()

	t.Run("nil logger rejected", func(t *testing.T) {
		_, err := NewGeminiInferencer(ctx, nil, config.LLMConfig{GeminiAPIKey: "k", ModelName: "m"})
		require.Error(t, err)
	})

	t.Run("missing api key rejected", func(t *testing.T) {
		_, err := NewGeminiInferencer(ctx, testLogger(), config.LLMConfig{ModelName: "m"})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing model name rejected", func(t *testing.T) {
		_, err := NewGeminiInferencer(ctx, testLogger(), config.LLMConfig{GeminiAPIKey: "k"})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestInferRejectsEmptyPrompt(t *testing.T) {
	g := &GeminiInferencer{logger: testLogger()}
	_, err := g.Infer(context.Background(), "", nil, "")
	assert.ErrorIs(t, err, generation.ErrInferenceFailed)
}
