// internal/store/cache_test.go
package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"loan-origination/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCachedStore(t *testing.T) (*CachedStore, *MemoryStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := NewMemoryStore()
	return NewCachedStore(inner, rdb, 5*time.Minute, logger.NewTestLogger(t)), inner, mr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestCachedStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, _, _ := setupCachedStore(t)
		return s
	})
}

func TestCachedStore_WriteThrough(t *testing.T) {
	ctx := context.Background()
	s, _, mr := setupCachedStore(t)

	require.NoError(t, s.Create(ctx, createTestApplication("app-1")))

	require.True(t, mr.Exists(cacheKey("app-1")))
	assert.Equal(t, 5*time.Minute, mr.TTL(cacheKey("app-1")))

	snap, err := s.Get(ctx, "app-1")
	require.NoError(t, err)
	advance(snap)
	require.NoError(t, s.Update(ctx, snap, 1))

	raw, err := mr.Get(cacheKey("app-1"))
	require.NoError(t, err)
	var cached struct {
		Version int64 `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, int64(2), cached.Version)
}

func TestCachedStore_ReadFillsEmptySlot(t *testing.T) {
	ctx := context.Background()
	s, inner, mr := setupCachedStore(t)
	require.NoError(t, inner.Create(ctx, createTestApplication("app-2")))
	require.False(t, mr.Exists(cacheKey("app-2")))

	got, err := s.Get(ctx, "app-2")

	require.NoError(t, err)
	assert.Equal(t, "app-2", got.ID)
	assert.True(t, mr.Exists(cacheKey("app-2")))
}

func TestCachedStore_ServesCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	s, inner, mr := setupCachedStore(t)
	require.NoError(t, inner.Create(ctx, createTestApplication("app-3")))

	cached := createTestApplication("app-3")
	cached.Version = 7
	doc, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey("app-3"), string(doc)))

	got, err := s.Get(ctx, "app-3")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Version)
}

func TestCachedStore_CorruptEntryIsEvicted(t *testing.T) {
	ctx := context.Background()
	s, inner, mr := setupCachedStore(t)
	require.NoError(t, inner.Create(ctx, createTestApplication("app-4")))
	require.NoError(t, mr.Set(cacheKey("app-4"), "{not json"))

	got, err := s.Get(ctx, "app-4")

	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	raw, err := mr.Get(cacheKey("app-4"))
	require.NoError(t, err)
	assert.NotEqual(t, "{not json", raw)
}

func TestCachedStore_ConflictEvicts(t *testing.T) {
	ctx := context.Background()
	s, _, mr := setupCachedStore(t)
	require.NoError(t, s.Create(ctx, createTestApplication("app-5")))

	stale := createTestApplication("app-5")
	advance(stale)
	err := s.Update(ctx, stale, 9)

	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.False(t, mr.Exists(cacheKey("app-5")))
}

// ==========================
// Degraded Cache Tests
// ==========================

func TestCachedStore_RedisDownFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	s, _, mr := setupCachedStore(t)
	require.NoError(t, s.Create(ctx, createTestApplication("app-6")))
	mr.Close()

	got, err := s.Get(ctx, "app-6")
	require.NoError(t, err)
	assert.Equal(t, "app-6", got.ID)

	advance(got)
	require.NoError(t, s.Update(ctx, got, 1))
	assert.Equal(t, int64(2), got.Version)

	assert.Error(t, s.Ping(ctx))
}
