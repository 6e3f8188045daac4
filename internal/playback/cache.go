package playback

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Source is the remote list store contract the cache pulls from.
type Source interface {
	// ListItems returns the canonical (insertion-ordered) playlist.
	ListItems(ctx context.Context, eventID string) ([]Item, error)
}

// DefaultSnapshotTTL bounds how long a fetched snapshot counts as fresh.
const DefaultSnapshotTTL = 30 * time.Second

type snapshotEntry struct {
	items     []Item
	fetchedAt time.Time
}

// SnapshotCache keeps per-event snapshots of the canonical playlist.
// Concurrent loads inside the freshness window share one snapshot; a change
// notification invalidates so the next load refetches (refetch-on-signal,
// not incremental patching). Safe for use from multiple views of the same
// event.
type SnapshotCache struct {
	src Source
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]snapshotEntry

	now func() time.Time // test hook
}

func NewSnapshotCache(src Source, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{
		src:     src,
		ttl:     ttl,
		entries: make(map[string]snapshotEntry),
		now:     time.Now,
	}
}

// Load returns the canonical items for the event, fetching from the source
// when no fresh snapshot exists. Transport failures come back wrapped in
// ErrFetch and leave no partial state behind.
func (c *SnapshotCache) Load(ctx context.Context, eventID string) ([]Item, error) {
	c.mu.Lock()
	c.purgeLocked()
	if entry, ok := c.entries[eventID]; ok {
		items := copyItems(entry.items)
		c.mu.Unlock()
		return items, nil
	}
	c.mu.Unlock()

	items, err := c.src.ListItems(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	c.mu.Lock()
	c.entries[eventID] = snapshotEntry{items: copyItems(items), fetchedAt: c.now()}
	c.mu.Unlock()
	return items, nil
}

// Invalidate drops the snapshot for the event so the next Load refetches.
func (c *SnapshotCache) Invalidate(eventID string) {
	c.mu.Lock()
	delete(c.entries, eventID)
	c.mu.Unlock()
}

// purgeLocked lazily drops entries past the freshness window.
func (c *SnapshotCache) purgeLocked() {
	cutoff := c.now().Add(-c.ttl)
	for id, entry := range c.entries {
		if entry.fetchedAt.Before(cutoff) {
			delete(c.entries, id)
		}
	}
}

func copyItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
