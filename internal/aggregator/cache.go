package aggregator

import (
	"sync"
	"time"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// Cache holds the latest refresh result. Readers get consistent snapshots;
// a refresh swaps the whole dataset at once, so the API never serves a
// half-updated view.
type Cache struct {
	mu          sync.RWMutex
	bySite      map[string][]types.Article
	flat        []types.Article
	lastRefresh time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{bySite: make(map[string][]types.Article)}
}

// Apply replaces the cached dataset with the result of a refresh.
func (c *Cache) Apply(results map[string][]types.Article) {
	flat := make([]types.Article, 0)
	for _, articles := range results {
		flat = append(flat, articles...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bySite = results
	c.flat = flat
	c.lastRefresh = time.Now()
}

// Articles returns all cached articles across sites.
func (c *Cache) Articles() []types.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flat
}

// Sites returns per-site article counts.
func (c *Cache) Sites() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts := make(map[string]int, len(c.bySite))
	for name, articles := range c.bySite {
		counts[name] = len(articles)
	}
	return counts
}

// BySite returns the articles for one site and whether it exists.
func (c *Cache) BySite(name string) ([]types.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	articles, ok := c.bySite[name]
	return articles, ok
}

// LastRefresh returns when Apply last ran; zero before the first refresh.
func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}
