package quill

import (
	"sync"
	"time"

	"github.com/eringen/quill/markdown"
)

type renderEntry struct {
	modified time.Time
	rendered markdown.Rendered
	fetched  time.Time
}

// RenderCache is an in-memory cache of rendered post bodies with TTL. An
// entry is only served while the post's modification time matches the one
// it was rendered from.
type RenderCache struct {
	mu       sync.RWMutex
	entries  map[int64]renderEntry
	ttl      time.Duration
	renderer *markdown.Renderer
	now      func() time.Time
}

// NewRenderCache creates a RenderCache that renders with r.
func NewRenderCache(r *markdown.Renderer, ttl time.Duration) *RenderCache {
	return &RenderCache{
		entries:  make(map[int64]renderEntry),
		ttl:      ttl,
		renderer: r,
		now:      time.Now,
	}
}

func (c *RenderCache) valid(e renderEntry, p Post) bool {
	return e.modified.Equal(p.ModifiedAt) && c.now().Sub(e.fetched) < c.ttl
}

// Render returns the rendered body and TOC of p, rendering on a miss.
// It tries a read lock first; only takes a write lock to store a new entry.
func (c *RenderCache) Render(p Post) (markdown.Rendered, error) {
	c.mu.RLock()
	e, ok := c.entries[p.ID]
	if ok && c.valid(e, p) {
		c.mu.RUnlock()
		return e.rendered, nil
	}
	c.mu.RUnlock()

	r, err := c.renderer.Render(p.Body)
	if err != nil {
		return markdown.Rendered{}, err
	}

	c.mu.Lock()
	c.entries[p.ID] = renderEntry{modified: p.ModifiedAt, rendered: r, fetched: c.now()}
	c.mu.Unlock()
	return r, nil
}

// Invalidate drops the entry for id.
func (c *RenderCache) Invalidate(id int64) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Purge clears the cache.
func (c *RenderCache) Purge() {
	c.mu.Lock()
	c.entries = make(map[int64]renderEntry)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *RenderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
