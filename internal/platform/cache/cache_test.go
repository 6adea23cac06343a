package cache

import (
	"context"
	"testing"
	"time"

	"github.com/beargallbladder/golfswarm/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set and get round trip", func(t *testing.T) {
		t.Parallel()
		c := New(config.CacheConfig{})
		c.Set(ctx, "k", []byte("v"), time.Minute)

		got, ok := c.Get(ctx, "k")
		require.True(t, ok)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		c := New(config.CacheConfig{})
		_, ok := c.Get(ctx, "absent")
		assert.False(t, ok)
	})

	t.Run("expired entry is gone", func(t *testing.T) {
		t.Parallel()
		c := New(config.CacheConfig{})
		c.Set(ctx, "k", []byte("v"), time.Millisecond)
		time.Sleep(5 * time.Millisecond)

		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("delete removes entry", func(t *testing.T) {
		t.Parallel()
		c := New(config.CacheConfig{})
		c.Set(ctx, "k", []byte("v"), time.Minute)
		c.Delete(ctx, "k")

		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	})
}
