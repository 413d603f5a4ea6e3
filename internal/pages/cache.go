package pages

import (
	"sync"

	"github.com/highdesertlabs/porchlight/internal/resolver"
)

// ContentCache is an in-process cache of assembled page content keyed by
// hostname and slug. Entries live until explicitly revalidated; publishing a
// page and the admin revalidate endpoint both purge the affected key.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[string]*resolver.LandingPageContent
}

func NewContentCache() *ContentCache {
	return &ContentCache{entries: make(map[string]*resolver.LandingPageContent)}
}

func cacheKey(hostname, slug string) string {
	return hostname + "/" + slug
}

func (c *ContentCache) Get(hostname, slug string) (*resolver.LandingPageContent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.entries[cacheKey(hostname, slug)]
	return content, ok
}

func (c *ContentCache) Set(hostname, slug string, content *resolver.LandingPageContent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(hostname, slug)] = content
}

// Revalidate drops the cached content for one hostname/slug pair.
func (c *ContentCache) Revalidate(hostname, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(hostname, slug))
}

// Purge drops every cached entry.
func (c *ContentCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*resolver.LandingPageContent)
}
