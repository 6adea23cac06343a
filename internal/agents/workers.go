package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/platform/cache"
)

// baseWorker carries the identity and default health behavior shared by the
// roadmap category workers. All of them are stateless apart from CacheWorker.
type baseWorker struct {
	name string
}

func (b baseWorker) Name() string { return b.name }

func (b baseWorker) HealthCheck(_ context.Context) error { return nil }

// PerformanceOptimizerWorker evaluates latency-budget tasks.
type PerformanceOptimizerWorker struct {
	baseWorker
}

// NewPerformanceOptimizerWorker creates a PerformanceOptimizerWorker.
func NewPerformanceOptimizerWorker() *PerformanceOptimizerWorker {
	return &PerformanceOptimizerWorker{baseWorker{name: "performance-optimizer"}}
}

// Execute reports latency headroom when the task payload carries a budget,
// and acknowledges otherwise.
func (w *PerformanceOptimizerWorker) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	var budget struct {
		TargetMS  float64 `json:"target_ms"`
		CurrentMS float64 `json:"current_ms"`
	}
	if err := json.Unmarshal(task.Payload, &budget); err != nil || budget.TargetMS <= 0 {
		return ackOutput(w.Name(), task.ID), nil
	}

	out, err := json.Marshal(map[string]any{
		"worker":        w.Name(),
		"task_id":       task.ID,
		"within_budget": budget.CurrentMS <= budget.TargetMS,
		"headroom_ms":   budget.TargetMS - budget.CurrentMS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode performance result: %w", err)
	}
	return out, nil
}

// MobileUXWorker classifies viewport tasks into layout recommendations.
type MobileUXWorker struct {
	baseWorker
}

// NewMobileUXWorker creates a MobileUXWorker.
func NewMobileUXWorker() *MobileUXWorker {
	return &MobileUXWorker{baseWorker{name: "mobile-ux"}}
}

// Execute recommends a layout class for the task's viewport width.
func (w *MobileUXWorker) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	var viewport struct {
		Width int `json:"viewport_width"`
	}
	if err := json.Unmarshal(task.Payload, &viewport); err != nil || viewport.Width <= 0 {
		return ackOutput(w.Name(), task.ID), nil
	}

	layout := "standard"
	switch {
	case viewport.Width < 480:
		layout = "compact"
	case viewport.Width >= 1280:
		layout = "wide"
	}

	out, err := json.Marshal(map[string]any{
		"worker":  w.Name(),
		"task_id": task.ID,
		"layout":  layout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode mobile-ux result: %w", err)
	}
	return out, nil
}

// SEOWorker audits page metadata tasks.
type SEOWorker struct {
	baseWorker
}

// NewSEOWorker creates a SEOWorker.
func NewSEOWorker() *SEOWorker {
	return &SEOWorker{baseWorker{name: "seo"}}
}

// Title and description length bounds used by the metadata audit.
const (
	maxTitleLength       = 60
	maxDescriptionLength = 160
)

// Execute checks title and description lengths and reports issues found.
func (w *SEOWorker) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	var page struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(task.Payload, &page); err != nil {
		return ackOutput(w.Name(), task.ID), nil
	}

	var issues []string
	if page.Title == "" {
		issues = append(issues, "missing title")
	} else if len(page.Title) > maxTitleLength {
		issues = append(issues, "title exceeds 60 characters")
	}
	if page.Description == "" {
		issues = append(issues, "missing description")
	} else if len(page.Description) > maxDescriptionLength {
		issues = append(issues, "description exceeds 160 characters")
	}

	out, err := json.Marshal(map[string]any{
		"worker":  w.Name(),
		"task_id": task.ID,
		"passed":  len(issues) == 0,
		"issues":  issues,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode seo result: %w", err)
	}
	return out, nil
}

// SecurityWorker acknowledges audit tasks. The checks themselves run in an
// external scanner; this worker records that the task was accepted.
type SecurityWorker struct {
	baseWorker
}

// NewSecurityWorker creates a SecurityWorker.
func NewSecurityWorker() *SecurityWorker {
	return &SecurityWorker{baseWorker{name: "security"}}
}

func (w *SecurityWorker) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	return ackOutput(w.Name(), task.ID), nil
}

// ScalabilityWorker evaluates capacity-headroom tasks.
type ScalabilityWorker struct {
	baseWorker
}

// NewScalabilityWorker creates a ScalabilityWorker.
func NewScalabilityWorker() *ScalabilityWorker {
	return &ScalabilityWorker{baseWorker{name: "scalability"}}
}

// Execute reports the load ratio against provisioned peak capacity.
func (w *ScalabilityWorker) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	var capacity struct {
		CurrentRPS float64 `json:"current_rps"`
		PeakRPS    float64 `json:"peak_rps"`
	}
	if err := json.Unmarshal(task.Payload, &capacity); err != nil || capacity.PeakRPS <= 0 {
		return ackOutput(w.Name(), task.ID), nil
	}

	ratio := capacity.CurrentRPS / capacity.PeakRPS
	out, err := json.Marshal(map[string]any{
		"worker":        w.Name(),
		"task_id":       task.ID,
		"load_ratio":    ratio,
		"needs_scaling": ratio > 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scalability result: %w", err)
	}
	return out, nil
}

// RetailerWorker acknowledges equipment-retailer sync tasks.
type RetailerWorker struct {
	baseWorker
}

// NewRetailerWorker creates a RetailerWorker.
func NewRetailerWorker() *RetailerWorker {
	return &RetailerWorker{baseWorker{name: "retailer"}}
}

func (w *RetailerWorker) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	return ackOutput(w.Name(), task.ID), nil
}

// EngagementWorker acknowledges user-engagement tasks such as streak nudges
// and milestone notifications.
type EngagementWorker struct {
	baseWorker
}

// NewEngagementWorker creates an EngagementWorker.
func NewEngagementWorker() *EngagementWorker {
	return &EngagementWorker{baseWorker{name: "engagement"}}
}

func (w *EngagementWorker) Execute(_ context.Context, task domain.Task) (json.RawMessage, error) {
	return ackOutput(w.Name(), task.ID), nil
}

// CacheWorker operates on the shared TTL cache: invalidations and warm-up
// requests arrive as roadmap tasks.
type CacheWorker struct {
	baseWorker
	cache *cache.TTLCache
}

// NewCacheWorker creates a CacheWorker over the given cache.
func NewCacheWorker(c *cache.TTLCache) *CacheWorker {
	return &CacheWorker{baseWorker: baseWorker{name: "cache"}, cache: c}
}

// HealthCheck reports degraded when no cache is wired.
func (w *CacheWorker) HealthCheck(_ context.Context) error {
	if w.cache == nil {
		return fmt.Errorf("%w: no cache configured", ErrDegraded)
	}
	return nil
}

// Execute handles invalidate operations; anything else is acknowledged.
func (w *CacheWorker) Execute(ctx context.Context, task domain.Task) (json.RawMessage, error) {
	var op struct {
		Op   string   `json:"op"`
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal(task.Payload, &op); err != nil || op.Op != "invalidate" || w.cache == nil {
		return ackOutput(w.Name(), task.ID), nil
	}

	for _, key := range op.Keys {
		w.cache.Delete(ctx, key)
	}

	out, err := json.Marshal(map[string]any{
		"worker":      w.Name(),
		"task_id":     task.ID,
		"invalidated": len(op.Keys),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache result: %w", err)
	}
	return out, nil
}

// AlertSink receives category-tagged alerts from workers. The message
// router implements this through a small adapter in the server wiring.
type AlertSink interface {
	Alert(ctx context.Context, category string, payload json.RawMessage)
}

// MonitoringWorker evaluates metric probes and raises a performance alert
// through the sink when a reading breaches its threshold.
type MonitoringWorker struct {
	baseWorker
	alerts AlertSink
}

// NewMonitoringWorker creates a MonitoringWorker. alerts may be nil, in
// which case breaches are only reported in the task output.
func NewMonitoringWorker(alerts AlertSink) *MonitoringWorker {
	return &MonitoringWorker{baseWorker: baseWorker{name: "monitoring"}, alerts: alerts}
}

func (w *MonitoringWorker) Execute(ctx context.Context, task domain.Task) (json.RawMessage, error) {
	var probe struct {
		Metric    string  `json:"metric"`
		Value     float64 `json:"value"`
		Threshold float64 `json:"threshold"`
	}
	if err := json.Unmarshal(task.Payload, &probe); err != nil || probe.Metric == "" {
		return ackOutput(w.Name(), task.ID), nil
	}

	breached := probe.Threshold > 0 && probe.Value > probe.Threshold
	if breached && w.alerts != nil {
		// The alert body is nested under "alert" so a broadcast that
		// routes back to this worker reads as an acknowledgment-only
		// payload, not a fresh probe.
		alert, _ := json.Marshal(map[string]any{
			"alert": map[string]any{
				"metric":    probe.Metric,
				"value":     probe.Value,
				"threshold": probe.Threshold,
				"task_id":   task.ID,
			},
		})
		w.alerts.Alert(ctx, "performance", alert)
	}

	out, err := json.Marshal(map[string]any{
		"worker":   w.Name(),
		"task_id":  task.ID,
		"metric":   probe.Metric,
		"breached": breached,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode monitoring output: %w", err)
	}
	return out, nil
}
