package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	r1, r2 := 0.05, 0.050
	assert.Equal(t, CacheKey(Request{Preset: "a", BaseRate: &r1}), CacheKey(Request{Preset: "a", BaseRate: &r2}))
	assert.NotEqual(t, CacheKey(Request{Preset: "a"}), CacheKey(Request{Preset: "a", BaseRate: &r1}))
	assert.NotEqual(t, CacheKey(Request{Preset: "a"}), CacheKey(Request{Preset: "b"}))
	assert.Len(t, CacheKey(Request{}), 64)
}

func TestCacheRunMemoizes(t *testing.T) {
	cfg := loadExample(t)
	c := NewCache(time.Hour)

	first, hit, err := c.Run(cfg, Request{Preset: "high_leverage"})
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := c.Run(cfg, Request{Preset: "high_leverage"})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())
}

func TestCacheSkipsFailures(t *testing.T) {
	cfg := loadExample(t)
	c := NewCache(time.Hour)

	_, _, err := c.Run(cfg, Request{Preset: "missing"})
	require.Error(t, err)
	assert.Zero(t, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	out := &Outcome{BaseRate: 0.05}
	c.Set("k", out)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, out, got)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Prune())
	assert.Zero(t, c.Len())
}

func TestNilCacheAlwaysRuns(t *testing.T) {
	cfg := loadExample(t)
	var c *Cache
	assert.Nil(t, NewCache(0))

	out, hit, err := c.Run(cfg, Request{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, out)
	assert.Zero(t, c.Prune())
}

func TestStartCachePrunesExpiredEntries(t *testing.T) {
	cfg := loadExample(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := StartCache(ctx, 20*time.Millisecond)
	require.NotNil(t, c)

	for i := 0; i < 50; i++ {
		rate := 0.04 + float64(i)/10_000
		_, _, err := c.Run(cfg, Request{BaseRate: &rate})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return c.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestJanitorStopsWithContext(t *testing.T) {
	c := NewCache(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Janitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}

	var nilCache *Cache
	nilCache.Janitor(context.Background(), time.Millisecond)
	assert.Nil(t, StartCache(context.Background(), 0))
}
