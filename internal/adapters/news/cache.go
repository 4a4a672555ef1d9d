package news

import (
	"sync"
	"time"

	"github.com/mlundberg/borsradar/pkg/models"
)

// Cache holds the last scraped article set for the read API so every
// request does not hit the news site. Owned by the service, not a
// package global.
type Cache struct {
	mu        sync.RWMutex
	articles  []models.ContentItem
	fetchedAt time.Time
	ttl       time.Duration
}

// NewCache creates an article cache with the given TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get returns the cached articles and whether they are still fresh
func (c *Cache) Get() ([]models.ContentItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.articles == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}

	out := make([]models.ContentItem, len(c.articles))
	copy(out, c.articles)
	return out, true
}

// Set replaces the cached article set
func (c *Cache) Set(articles []models.ContentItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.articles = make([]models.ContentItem, len(articles))
	copy(c.articles, articles)
	c.fetchedAt = time.Now()
}

// Invalidate drops the cached set so the next read refetches
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.articles = nil
}
