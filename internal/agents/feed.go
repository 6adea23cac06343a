package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/beargallbladder/golfswarm/internal/domain"
)

// FeedPublisher is the transport the feed agent publishes through. The
// Kafka-backed implementation lives in platform/kafka; tests and
// broker-less deployments use NoopPublisher.
type FeedPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// NoopPublisher discards feed events. Used when no broker is configured.
type NoopPublisher struct{}

// Publish implements FeedPublisher by doing nothing.
func (NoopPublisher) Publish(_ context.Context, _ string, _ []byte) error { return nil }

// feedEvent is the wire shape published to the social feed.
type feedEvent struct {
	UserID      string    `json:"user_id"`
	ShotID      string    `json:"shot_id"`
	Club        string    `json:"club,omitempty"`
	Distance    *float64  `json:"distance,omitempty"`
	Score       float64   `json:"score,omitempty"`
	Grade       string    `json:"grade,omitempty"`
	Achievement string    `json:"achievement,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// FeedAgent publishes analyzed shots to the social/achievement feed. The
// pipeline invokes it fire-and-forget: failures are logged by the caller
// and never affect the response already returned to the user.
type FeedAgent struct {
	publisher FeedPublisher
	logger    *slog.Logger
}

// NewFeedAgent creates a FeedAgent over the given publisher.
func NewFeedAgent(publisher FeedPublisher, logger *slog.Logger) *FeedAgent {
	return &FeedAgent{
		publisher: publisher,
		logger:    logger.With("component", "feed_agent"),
	}
}

// Name implements Agent.
func (a *FeedAgent) Name() string { return "publish-feed" }

// HealthCheck implements Agent.
func (a *FeedAgent) HealthCheck(_ context.Context) error {
	if a.publisher == nil {
		return fmt.Errorf("%w: no feed publisher configured", ErrDegraded)
	}
	return nil
}

// Publish emits one feed event for the analyzed shot.
func (a *FeedAgent) Publish(ctx context.Context, shot domain.NormalizedShot, scoring *domain.ScoringResult, user *domain.User) error {
	event := feedEvent{
		ShotID:     shot.ID.String(),
		Club:       shot.Club,
		Distance:   shot.Distance,
		OccurredAt: time.Now().UTC(),
	}
	if user != nil {
		event.UserID = user.ID.String()
	}
	if scoring != nil {
		event.Score = scoring.Total
		event.Grade = scoring.Grade
		event.Achievement = achievement(shot, scoring)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	if err := a.publisher.Publish(ctx, event.UserID, value); err != nil {
		return fmt.Errorf("failed to publish feed event: %w", err)
	}

	a.logger.DebugContext(ctx, "published feed event",
		"shot_id", event.ShotID,
		"user_id", event.UserID)
	return nil
}

// achievement detects milestone shots worth celebrating in the feed.
func achievement(shot domain.NormalizedShot, scoring *domain.ScoringResult) string {
	if scoring.Total >= 95 {
		return "near-perfect swing"
	}
	if shot.Distance != nil && *shot.Distance >= 300 && shot.Club == "driver" {
		return "300 yard club"
	}
	return ""
}
