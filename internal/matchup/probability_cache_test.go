package matchup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbabilityCacheWriteThrough(t *testing.T) {
	store := newFakeStore()
	cache := NewProbabilityCache(store, testLogger())
	ctx := context.Background()

	cache.Put(ctx, 7, 57.3)

	entry, ok := cache.Get(ctx, 7)
	require.True(t, ok)
	assert.InDelta(t, 57.3, entry.Value, 1e-9)
	assert.Equal(t, 1, store.sets)
	assert.Contains(t, store.data, "winprob:7")
}

func TestProbabilityCacheStoreFallback(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	// Seed via one cache instance, read through a fresh one to simulate a
	// restart with only the durable copy surviving.
	NewProbabilityCache(store, testLogger()).Put(ctx, 9, 42.0)

	restarted := NewProbabilityCache(store, testLogger())
	entry, ok := restarted.Get(ctx, 9)
	require.True(t, ok)
	assert.InDelta(t, 42.0, entry.Value, 1e-9)
}

func TestProbabilityCacheStoreFailureNonFatal(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	cache := NewProbabilityCache(store, testLogger())
	ctx := context.Background()

	// Writes land in memory even when the store is down.
	cache.Put(ctx, 3, 61.5)
	entry, ok := cache.Get(ctx, 3)
	require.True(t, ok)
	assert.InDelta(t, 61.5, entry.Value, 1e-9)
}

func TestProbabilityCacheFreshnessPolicy(t *testing.T) {
	cache := NewProbabilityCache(nil, testLogger())

	now := time.Now()
	cache.now = func() time.Time { return now }

	entry := cache.Put(context.Background(), 1, 50)

	// Two hours later: still fresh with nothing live, stale with a live game.
	cache.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.True(t, cache.Fresh(entry, false))
	assert.False(t, cache.Fresh(entry, true))

	// Within the staleness window a live game still reuses the entry.
	cache.now = func() time.Time { return now.Add(30 * time.Second) }
	assert.True(t, cache.Fresh(entry, true))

	// Exactly at the threshold the entry is stale.
	cache.now = func() time.Time { return now.Add(DefaultStalenessWindow) }
	assert.False(t, cache.Fresh(entry, true))
}

func TestProbabilityCacheClear(t *testing.T) {
	cache := NewProbabilityCache(nil, testLogger())
	ctx := context.Background()

	cache.Put(ctx, 5, 33.3)
	cache.Clear()

	_, ok := cache.Get(ctx, 5)
	assert.False(t, ok)
}
