// Package rendercache holds rendered page HTML per document so repeat reads
// skip re-rendering. Invalidation is inherently idempotent.
package rendercache

import (
	"sync"
	"time"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// Entry is one cached render
type Entry struct {
	HTML       string
	RenderedAt time.Time
}

// Cache is an in-memory render cache keyed by document identity
type Cache struct {
	mu      sync.RWMutex
	entries map[wiki.DocumentID]Entry
}

// New creates an empty render cache
func New() *Cache {
	return &Cache{
		entries: make(map[wiki.DocumentID]Entry),
	}
}

// Get returns the cached render for the document, if any
func (c *Cache) Get(doc wiki.DocumentID) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[doc]
	return e, ok
}

// Put stores a rendered page for the document
func (c *Cache) Put(doc wiki.DocumentID, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[doc] = Entry{HTML: html, RenderedAt: time.Now()}
}

// Invalidate drops the cached render for the document.
// Invalidating an uncached document is a no-op.
func (c *Cache) Invalidate(doc wiki.DocumentID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, doc)
}

// Len returns the number of cached renders
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
