package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beargallbladder/golfswarm/internal/agents"
	"github.com/beargallbladder/golfswarm/internal/domain"
)

// Task types the background lane recognizes. Anything else is dropped.
const (
	TaskTypeSEO             = "seo-task"
	TaskTypeAnalyticsIngest = "analytics-ingest"
	TaskTypeCleanup         = "cleanup"
)

// ExecutorHandler adapts a roadmap executor into a queue Handler. The
// executor's output is discarded; queued work has no caller waiting on it.
func ExecutorHandler(exec agents.Executor) Handler {
	return func(ctx context.Context, task domain.Task) error {
		_, err := exec.Execute(ctx, task)
		return err
	}
}

// ShotSaver persists shots carried in analytics-ingest payloads.
type ShotSaver interface {
	Save(ctx context.Context, shot *domain.NormalizedShot) error
}

// AnalyticsIngestHandler decodes the normalized shot in the task payload
// and persists it.
func AnalyticsIngestHandler(shots ShotSaver) Handler {
	return func(ctx context.Context, task domain.Task) error {
		var shot domain.NormalizedShot
		if err := json.Unmarshal(task.Payload, &shot); err != nil {
			return fmt.Errorf("%w: analytics payload: %v", domain.ErrInvalidJobPayload, err)
		}
		if err := shots.Save(ctx, &shot); err != nil {
			return fmt.Errorf("failed to persist analytics shot: %w", err)
		}
		return nil
	}
}

// KeyDeleter removes cached entries.
type KeyDeleter interface {
	Delete(ctx context.Context, key string)
}

// CleanupHandler invalidates the cache keys named by the task payload.
func CleanupHandler(cache KeyDeleter) Handler {
	return func(ctx context.Context, task domain.Task) error {
		var payload struct {
			Keys []string `json:"keys"`
		}
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return fmt.Errorf("%w: cleanup payload: %v", domain.ErrInvalidJobPayload, err)
		}
		for _, key := range payload.Keys {
			cache.Delete(ctx, key)
		}
		return nil
	}
}
