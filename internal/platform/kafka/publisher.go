// Package kafka provides the Kafka-backed feed publisher used for
// fire-and-forget social feed updates.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/twmb/franz-go/pkg/kgo"
)

// FeedPublisher produces feed events to a Kafka topic using franz-go.
// Publishing is asynchronous; delivery failures are logged, never returned
// to the request path.
type FeedPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// NewFeedPublisher creates a FeedPublisher connected to the configured
// brokers.
func NewFeedPublisher(cfg config.FeedConfig, logger *slog.Logger) (*FeedPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("feed topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &FeedPublisher{
		client: client,
		topic:  cfg.Topic,
		logger: logger.With("component", "feed_publisher"),
	}, nil
}

// Publish produces one feed event keyed by the given key. The produce is
// asynchronous; a delivery failure is logged and swallowed.
func (p *FeedPublisher) Publish(ctx context.Context, key string, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("feed publisher is closed")
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}

	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("feed event delivery failed",
				"topic", r.Topic,
				"key", string(r.Key),
				"error", err)
		}
	})

	return nil
}

// Close flushes outstanding produces and releases the client.
func (p *FeedPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("failed to flush feed publisher", "error", err)
	}
	p.client.Close()
	return nil
}
