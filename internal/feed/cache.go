package feed

import (
	"context"
	"sync"
)

// Document is a rendered post fetched for the feed.
type Document struct {
	HTML string
	Meta map[string]any
}

// LoadFunc fetches the rendered document of the post called slug.
type LoadFunc func(ctx context.Context, slug string) (Document, error)

// DocumentCache memoizes documents by slug. Entries are never evicted; the
// cache lives for one feed render and holds at most one entry per post.
// Failed loads are not cached.
type DocumentCache struct {
	load LoadFunc

	mu      sync.Mutex
	entries map[string]Document
}

// NewDocumentCache creates a cache in front of load.
func NewDocumentCache(load LoadFunc) *DocumentCache {
	return &DocumentCache{load: load, entries: make(map[string]Document)}
}

// Get returns the document for slug, loading it on first use.
func (c *DocumentCache) Get(ctx context.Context, slug string) (Document, error) {
	c.mu.Lock()
	doc, ok := c.entries[slug]
	c.mu.Unlock()
	if ok {
		return doc, nil
	}

	doc, err := c.load(ctx, slug)
	if err != nil {
		return Document{}, err
	}

	c.mu.Lock()
	c.entries[slug] = doc
	c.mu.Unlock()
	return doc, nil
}

// Len returns the number of cached documents.
func (c *DocumentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
