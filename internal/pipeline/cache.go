package pipeline

import (
	"sync"

	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
)

// SeriesCache memoizes processed series by requested depth in years.
// Entries live until they are replaced or invalidated; there is no TTL or size bound.
type SeriesCache struct {
	mu      sync.RWMutex
	entries map[int]domain.Series
}

// NewSeriesCache creates an empty cache.
func NewSeriesCache() *SeriesCache {
	return &SeriesCache{entries: make(map[int]domain.Series)}
}

// Get returns the cached series for years.
func (c *SeriesCache) Get(years int) (domain.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.entries[years]
	return s, ok
}

// Set stores s for years, replacing any previous entry.
func (c *SeriesCache) Set(years int, s domain.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[years] = s
}

// Invalidate drops the entry for years. Other depths are untouched.
func (c *SeriesCache) Invalidate(years int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, years)
}

// Len returns the number of cached depths.
func (c *SeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
