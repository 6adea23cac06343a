package bus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Common validation errors for Message
var (
	ErrEmptyMessageCategory = errors.New("message category cannot be empty")
)

// Message is one unit of inter-worker communication.
type Message struct {
	ID       string          `json:"id"`
	Category string          `json:"category"`
	Async    bool            `json:"async,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// NewMessage creates a Message with a fresh id.
func NewMessage(category string, async bool, payload json.RawMessage) (*Message, error) {
	if category == "" {
		return nil, ErrEmptyMessageCategory
	}
	return &Message{
		ID:       uuid.NewString(),
		Category: category,
		Async:    async,
		Payload:  payload,
	}, nil
}

// Subscriber receives routed messages.
type Subscriber interface {
	Name() string
	OnMessage(ctx context.Context, msg Message) error
}

// SubscriberFunc adapts a function into a Subscriber.
type SubscriberFunc struct {
	SubscriberName string
	Handle         func(ctx context.Context, msg Message) error
}

func (s SubscriberFunc) Name() string { return s.SubscriberName }

func (s SubscriberFunc) OnMessage(ctx context.Context, msg Message) error {
	return s.Handle(ctx, msg)
}

// HealthChecker reports whether a worker is eligible for delivery.
type HealthChecker interface {
	IsHealthy(worker string) bool
}

// alwaysHealthy is the fallback when no health monitor is wired.
type alwaysHealthy struct{}

func (alwaysHealthy) IsHealthy(string) bool { return true }

// DefaultRoutes is the static category to worker-kind routing table.
func DefaultRoutes() map[string][]string {
	return map[string][]string{
		"performance": {"cache", "monitoring", "scalability"},
		"ui":          {"mobile-ux", "engagement"},
		"mobile":      {"mobile-ux"},
		"seo":         {"seo", "retailer"},
		"critical":    {"security", "monitoring"},
	}
}

// Router forwards messages to the subscribers registered under the worker
// kinds its routing table names for the message's category. Delivery is
// best-effort: a failing or panicking subscriber never affects its
// siblings or the publisher.
type Router struct {
	routes map[string][]string
	health HealthChecker
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]Subscriber
	buffered    map[string][]Message
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRoutes replaces the default routing table.
func WithRoutes(routes map[string][]string) RouterOption {
	return func(r *Router) { r.routes = routes }
}

// WithHealthChecker gates delivery on worker health.
func WithHealthChecker(h HealthChecker) RouterOption {
	return func(r *Router) { r.health = h }
}

// NewRouter creates a Router with the default routing table and no health
// gating.
func NewRouter(logger *slog.Logger, opts ...RouterOption) *Router {
	r := &Router{
		routes:      DefaultRoutes(),
		health:      alwaysHealthy{},
		logger:      logger.With("component", "message_router"),
		subscribers: make(map[string]Subscriber),
		buffered:    make(map[string][]Message),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers a subscriber under its worker name. The routing
// table decides which categories reach it.
func (r *Router) Subscribe(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[sub.Name()] = sub
}

// Publish routes the message. Async messages are buffered under their id
// and delivered on Drain; everything else goes out synchronously to every
// healthy matching subscriber. Returns the number of successful
// deliveries.
func (r *Router) Publish(ctx context.Context, msg Message) int {
	if msg.Category == "" {
		r.logger.Warn("dropping message without category", "message_id", msg.ID)
		return 0
	}

	if msg.Async {
		r.mu.Lock()
		r.buffered[msg.ID] = append(r.buffered[msg.ID], msg)
		r.mu.Unlock()
		return 0
	}

	return r.deliver(ctx, msg)
}

// Drain delivers and clears the async messages buffered under the id.
// Returns the total number of successful deliveries.
func (r *Router) Drain(ctx context.Context, id string) int {
	r.mu.Lock()
	msgs := r.buffered[id]
	delete(r.buffered, id)
	r.mu.Unlock()

	delivered := 0
	for _, msg := range msgs {
		delivered += r.deliver(ctx, msg)
	}
	return delivered
}

// Buffered reports how many async messages are waiting under the id.
func (r *Router) Buffered(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buffered[id])
}

func (r *Router) deliver(ctx context.Context, msg Message) int {
	kinds := r.routes[msg.Category]
	if len(kinds) == 0 {
		r.logger.Debug("no route for message category",
			"message_id", msg.ID, "category", msg.Category)
		return 0
	}

	r.mu.RLock()
	targets := make([]Subscriber, 0, len(kinds))
	for _, kind := range kinds {
		if sub, ok := r.subscribers[kind]; ok {
			targets = append(targets, sub)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if !r.health.IsHealthy(sub.Name()) {
			r.logger.Debug("skipping unhealthy subscriber",
				"message_id", msg.ID, "worker", sub.Name())
			continue
		}
		if err := r.guardDeliver(ctx, sub, msg); err != nil {
			r.logger.Warn("message delivery failed",
				"message_id", msg.ID, "category", msg.Category,
				"worker", sub.Name(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// guardDeliver isolates one subscriber's failure from the rest.
func (r *Router) guardDeliver(ctx context.Context, sub Subscriber, msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New("subscriber panicked")
		}
	}()
	return sub.OnMessage(ctx, msg)
}
