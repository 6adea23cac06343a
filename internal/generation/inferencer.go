package generation

import (
	"context"
)

// Inferencer defines the interface for the external inference service.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
//
// Implementations must honor ctx cancellation: a timed-out call returns an
// error rather than hanging, and callers treat it like any other inference
// failure.
type Inferencer interface {
	// Infer sends a prompt plus an optional media attachment to the
	// service and returns its free-text response. The media bytes may be
	// nil for text-only prompts.
	Infer(ctx context.Context, prompt string, media []byte, mimeType string) (string, error)
}
