package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	mod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("hit when file state matches", func(t *testing.T) {
		c := NewCache()
		c.Set("a", CacheEntry{Value: 1, ModTime: mod, Size: 10, Rows: 3})

		e, ok := c.Get("a", mod, 10)
		assert.True(t, ok)
		assert.Equal(t, 1, e.Value)
		assert.Equal(t, 1, e.HitCount)
	})

	t.Run("stale entry is evicted", func(t *testing.T) {
		c := NewCache()
		c.Set("a", CacheEntry{Value: 1, ModTime: mod, Size: 10})

		_, ok := c.Get("a", mod.Add(time.Second), 10)
		assert.False(t, ok)
		_, ok = c.Peek("a")
		assert.False(t, ok)
	})

	t.Run("size change is stale", func(t *testing.T) {
		c := NewCache()
		c.Set("a", CacheEntry{Value: 1, ModTime: mod, Size: 10})

		_, ok := c.Get("a", mod, 11)
		assert.False(t, ok)
	})

	t.Run("invalidate and clear", func(t *testing.T) {
		c := NewCache()
		c.Set("a", CacheEntry{Value: 1})
		c.Set("b", CacheEntry{Value: 2})

		assert.True(t, c.Invalidate("a"))
		assert.False(t, c.Invalidate("a"))
		assert.Equal(t, 1, c.Clear())
		assert.Equal(t, 0, c.Stats().Entries)
	})

	t.Run("stats", func(t *testing.T) {
		c := NewCache()
		c.Set("b", CacheEntry{Value: 1, ModTime: mod, Size: 1, Rows: 4, Skipped: 1})
		c.Set("a", CacheEntry{Value: 1, ModTime: mod, Size: 1})

		c.Get("a", mod, 1)
		c.Get("a", mod, 1)
		c.Get("missing", mod, 1)

		stats := c.Stats()
		assert.Equal(t, 2, stats.Entries)
		assert.Equal(t, int64(2), stats.HitCount)
		assert.Equal(t, int64(1), stats.MissCount)
		assert.InDelta(t, 2.0/3.0, stats.HitRatio, 1e-9)
		assert.Equal(t, "a", stats.Datasets[0].Name)
		assert.Equal(t, 2, stats.Datasets[0].Hits)
		assert.Equal(t, 4, stats.Datasets[1].Rows)
	})

	t.Run("empty stats", func(t *testing.T) {
		stats := NewCache().Stats()
		assert.Zero(t, stats.HitRatio)
		assert.NotNil(t, stats.Datasets)
	})
}
