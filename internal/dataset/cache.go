package dataset

import (
	"sort"
	"sync"
	"time"
)

// CacheEntry is one loaded table together with the file state it was read
// from.
type CacheEntry struct {
	Value    any
	Path     string
	ModTime  time.Time
	Size     int64
	LoadedAt time.Time
	Rows     int
	Skipped  int
	HitCount int
}

// fresh reports whether the entry still matches the file on disk.
func (e CacheEntry) fresh(modTime time.Time, size int64) bool {
	return e.ModTime.Equal(modTime) && e.Size == size
}

// CacheStats is a point-in-time view of the cache.
type CacheStats struct {
	Entries   int             `json:"entries"`
	HitCount  int64           `json:"hit_count"`
	MissCount int64           `json:"miss_count"`
	HitRatio  float64         `json:"hit_ratio"`
	Datasets  []CachedDataset `json:"datasets"`
}

// CachedDataset summarizes one cache entry.
type CachedDataset struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Rows     int       `json:"rows"`
	Skipped  int       `json:"skipped"`
	ModTime  time.Time `json:"mod_time"`
	LoadedAt time.Time `json:"loaded_at"`
	Hits     int       `json:"hits"`
}

// Cache holds loaded tables keyed by dataset name. It is injected into the
// Loader and safe for concurrent use.
type Cache struct {
	entries   map[string]CacheEntry
	mutex     sync.RWMutex
	hitCount  int64
	missCount int64
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]CacheEntry)}
}

// Get returns the entry for name if it matches the given file state. A stale
// entry is evicted and counts as a miss.
func (c *Cache) Get(name string, modTime time.Time, size int64) (CacheEntry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[name]
	if !exists {
		c.missCount++
		return CacheEntry{}, false
	}
	if !entry.fresh(modTime, size) {
		delete(c.entries, name)
		c.missCount++
		return CacheEntry{}, false
	}

	entry.HitCount++
	c.entries[name] = entry
	c.hitCount++

	return entry, true
}

// Peek returns the entry for name without freshness checks or counting.
func (c *Cache) Peek(name string) (CacheEntry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, ok := c.entries[name]
	return entry, ok
}

// Set stores an entry, replacing any previous one
func (c *Cache) Set(name string, entry CacheEntry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[name] = entry
}

// Invalidate removes one dataset and reports whether it was cached
func (c *Cache) Invalidate(name string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, ok := c.entries[name]
	delete(c.entries, name)
	return ok
}

// Clear removes every entry. Hit and miss counters are kept.
func (c *Cache) Clear() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]CacheEntry)
	return n
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}

	stats := CacheStats{
		Entries:   len(c.entries),
		HitCount:  c.hitCount,
		MissCount: c.missCount,
		HitRatio:  ratio,
		Datasets:  make([]CachedDataset, 0, len(c.entries)),
	}
	for name, e := range c.entries {
		stats.Datasets = append(stats.Datasets, CachedDataset{
			Name:     name,
			Path:     e.Path,
			Rows:     e.Rows,
			Skipped:  e.Skipped,
			ModTime:  e.ModTime,
			LoadedAt: e.LoadedAt,
			Hits:     e.HitCount,
		})
	}
	sort.Slice(stats.Datasets, func(i, j int) bool {
		return stats.Datasets[i].Name < stats.Datasets[j].Name
	})

	return stats
}
