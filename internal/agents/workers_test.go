package agents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/platform/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryWorkers_Identity(t *testing.T) {
	t.Parallel()

	workers := []Executor{
		NewPerformanceOptimizerWorker(),
		NewMobileUXWorker(),
		NewSEOWorker(),
		NewSecurityWorker(),
		NewScalabilityWorker(),
		NewRetailerWorker(),
		NewEngagementWorker(),
		NewCacheWorker(cache.New(config.CacheConfig{DefaultTTL: time.Minute})),
		NewMonitoringWorker(nil),
	}

	want := []string{
		"performance-optimizer", "mobile-ux", "seo", "security",
		"scalability", "retailer", "engagement", "cache", "monitoring",
	}

	require.Len(t, workers, len(want))
	for i, w := range workers {
		assert.Equal(t, want[i], w.Name())
		assert.NoError(t, w.HealthCheck(context.Background()))
	}
}

func TestPerformanceOptimizerWorker_Execute(t *testing.T) {
	t.Parallel()

	w := NewPerformanceOptimizerWorker()

	t.Run("reports headroom against a budget", func(t *testing.T) {
		t.Parallel()

		out, err := w.Execute(context.Background(), domain.Task{
			ID:      "perf-1",
			Type:    "tune",
			Payload: json.RawMessage(`{"target_ms": 200, "current_ms": 150}`),
		})
		require.NoError(t, err)

		var result struct {
			WithinBudget bool    `json:"within_budget"`
			HeadroomMS   float64 `json:"headroom_ms"`
		}
		require.NoError(t, json.Unmarshal(out, &result))
		assert.True(t, result.WithinBudget)
		assert.InDelta(t, 50, result.HeadroomMS, 0.001)
	})

	t.Run("acknowledges payloads without a budget", func(t *testing.T) {
		t.Parallel()

		out, err := w.Execute(context.Background(), domain.Task{ID: "perf-2", Type: "tune"})
		require.NoError(t, err)

		var ack map[string]string
		require.NoError(t, json.Unmarshal(out, &ack))
		assert.Equal(t, "completed", ack["status"])
	})
}

func TestMobileUXWorker_Execute(t *testing.T) {
	t.Parallel()

	w := NewMobileUXWorker()

	tests := []struct {
		name    string
		width   int
		layout  string
	}{
		{name: "phone", width: 390, layout: "compact"},
		{name: "tablet", width: 820, layout: "standard"},
		{name: "desktop", width: 1440, layout: "wide"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			payload, err := json.Marshal(map[string]int{"viewport_width": tc.width})
			require.NoError(t, err)

			out, err := w.Execute(context.Background(), domain.Task{ID: "ux-1", Type: "layout", Payload: payload})
			require.NoError(t, err)

			var result struct {
				Layout string `json:"layout"`
			}
			require.NoError(t, json.Unmarshal(out, &result))
			assert.Equal(t, tc.layout, result.Layout)
		})
	}
}

func TestSEOWorker_Execute(t *testing.T) {
	t.Parallel()

	w := NewSEOWorker()

	t.Run("passes well-formed metadata", func(t *testing.T) {
		t.Parallel()

		out, err := w.Execute(context.Background(), domain.Task{
			ID:      "seo-1",
			Type:    "seo-task",
			Payload: json.RawMessage(`{"title": "Shot Analysis", "description": "Detailed golf shot analysis from your launch monitor."}`),
		})
		require.NoError(t, err)

		var result struct {
			Passed bool     `json:"passed"`
			Issues []string `json:"issues"`
		}
		require.NoError(t, json.Unmarshal(out, &result))
		assert.True(t, result.Passed)
		assert.Empty(t, result.Issues)
	})

	t.Run("flags missing metadata", func(t *testing.T) {
		t.Parallel()

		out, err := w.Execute(context.Background(), domain.Task{
			ID:      "seo-2",
			Type:    "seo-task",
			Payload: json.RawMessage(`{}`),
		})
		require.NoError(t, err)

		var result struct {
			Passed bool     `json:"passed"`
			Issues []string `json:"issues"`
		}
		require.NoError(t, json.Unmarshal(out, &result))
		assert.False(t, result.Passed)
		assert.Len(t, result.Issues, 2)
	})
}

func TestScalabilityWorker_Execute(t *testing.T) {
	t.Parallel()

	w := NewScalabilityWorker()

	out, err := w.Execute(context.Background(), domain.Task{
		ID:      "cap-1",
		Type:    "capacity",
		Payload: json.RawMessage(`{"current_rps": 900, "peak_rps": 1000}`),
	})
	require.NoError(t, err)

	var result struct {
		LoadRatio    float64 `json:"load_ratio"`
		NeedsScaling bool    `json:"needs_scaling"`
	}
	require.NoError(t, json.Unmarshal(out, &result))
	assert.InDelta(t, 0.9, result.LoadRatio, 0.001)
	assert.True(t, result.NeedsScaling)
}

func TestCacheWorker(t *testing.T) {
	t.Parallel()

	t.Run("invalidate removes keys", func(t *testing.T) {
		t.Parallel()

		ttl := cache.New(config.CacheConfig{DefaultTTL: time.Minute})
		ctx := context.Background()
		ttl.Set(ctx, "task:stale", []byte("old"), time.Minute)

		w := NewCacheWorker(ttl)
		out, err := w.Execute(ctx, domain.Task{
			ID:      "inv-1",
			Type:    "cache",
			Payload: json.RawMessage(`{"op": "invalidate", "keys": ["task:stale"]}`),
		})
		require.NoError(t, err)

		var result struct {
			Invalidated int `json:"invalidated"`
		}
		require.NoError(t, json.Unmarshal(out, &result))
		assert.Equal(t, 1, result.Invalidated)

		_, found := ttl.Get(ctx, "task:stale")
		assert.False(t, found)
	})

	t.Run("nil cache reports degraded", func(t *testing.T) {
		t.Parallel()

		w := NewCacheWorker(nil)
		err := w.HealthCheck(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDegraded)
	})
}

// recordingSink captures alerts raised by the monitoring worker.
type recordingSink struct {
	categories []string
	payloads   []json.RawMessage
}

func (s *recordingSink) Alert(_ context.Context, category string, payload json.RawMessage) {
	s.categories = append(s.categories, category)
	s.payloads = append(s.payloads, payload)
}

func TestMonitoringWorker_Execute(t *testing.T) {
	t.Parallel()

	t.Run("breach raises a performance alert", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{}
		w := NewMonitoringWorker(sink)

		out, err := w.Execute(context.Background(), domain.Task{
			ID:      "probe-1",
			Type:    "monitoring",
			Payload: json.RawMessage(`{"metric": "p95_latency_ms", "value": 840, "threshold": 500}`),
		})
		require.NoError(t, err)

		var result struct {
			Metric   string `json:"metric"`
			Breached bool   `json:"breached"`
		}
		require.NoError(t, json.Unmarshal(out, &result))
		assert.Equal(t, "p95_latency_ms", result.Metric)
		assert.True(t, result.Breached)

		require.Len(t, sink.categories, 1)
		assert.Equal(t, "performance", sink.categories[0])
	})

	t.Run("reading under threshold stays quiet", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{}
		w := NewMonitoringWorker(sink)

		_, err := w.Execute(context.Background(), domain.Task{
			ID:      "probe-2",
			Type:    "monitoring",
			Payload: json.RawMessage(`{"metric": "p95_latency_ms", "value": 120, "threshold": 500}`),
		})
		require.NoError(t, err)
		assert.Empty(t, sink.categories)
	})

	t.Run("re-delivered alert is not raised again", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{}
		w := NewMonitoringWorker(sink)

		_, err := w.Execute(context.Background(), domain.Task{
			ID:      "alert-echo",
			Type:    "performance",
			Payload: json.RawMessage(`{"alert": {"metric": "p95_latency_ms", "value": 840, "threshold": 500}}`),
		})
		require.NoError(t, err)
		assert.Empty(t, sink.categories)
	})

	t.Run("opaque payload is acknowledged", func(t *testing.T) {
		t.Parallel()

		w := NewMonitoringWorker(nil)
		out, err := w.Execute(context.Background(), domain.Task{ID: "probe-3", Type: "monitoring"})
		require.NoError(t, err)

		var ack struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(out, &ack))
		assert.Equal(t, "completed", ack.Status)
	})
}
