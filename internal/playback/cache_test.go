package playback

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSource counts fetches and can be switched into a failing mode.
type fakeSource struct {
	items []Item
	err   error
	calls int
}

func (s *fakeSource) ListItems(_ context.Context, _ string) ([]Item, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return copyItems(s.items), nil
}

func TestSnapshotCacheFreshHit(t *testing.T) {
	src := &fakeSource{items: makeItems("a", "b")}
	c := NewSnapshotCache(src, time.Minute)

	for i := 0; i < 3; i++ {
		items, err := c.Load(context.Background(), "ev1")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("len(items) = %d, want 2", len(items))
		}
	}
	if src.calls != 1 {
		t.Fatalf("source fetched %d times, want 1", src.calls)
	}
}

func TestSnapshotCacheExpiry(t *testing.T) {
	src := &fakeSource{items: makeItems("a")}
	c := NewSnapshotCache(src, 30*time.Second)

	now := time.Now()
	c.now = func() time.Time { return now }

	if _, err := c.Load(context.Background(), "ev1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	now = now.Add(29 * time.Second)
	if _, err := c.Load(context.Background(), "ev1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("source fetched %d times inside the window, want 1", src.calls)
	}

	now = now.Add(2 * time.Second)
	if _, err := c.Load(context.Background(), "ev1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source fetched %d times after expiry, want 2", src.calls)
	}
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	src := &fakeSource{items: makeItems("a")}
	c := NewSnapshotCache(src, time.Minute)

	if _, err := c.Load(context.Background(), "ev1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Invalidate("ev1")
	if _, err := c.Load(context.Background(), "ev1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source fetched %d times, want 2", src.calls)
	}
}

func TestSnapshotCacheFetchError(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	c := NewSnapshotCache(src, time.Minute)

	_, err := c.Load(context.Background(), "ev1")
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}

	// A failed fetch must not leave a poisoned entry behind: once the source
	// recovers, the next Load succeeds.
	src.err = nil
	src.items = makeItems("a")
	items, err := c.Load(context.Background(), "ev1")
	if err != nil {
		t.Fatalf("Load after recovery: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
}

func TestSnapshotCachePerEventEntries(t *testing.T) {
	src := &fakeSource{items: makeItems("a")}
	c := NewSnapshotCache(src, time.Minute)

	if _, err := c.Load(context.Background(), "ev1"); err != nil {
		t.Fatalf("Load ev1: %v", err)
	}
	if _, err := c.Load(context.Background(), "ev2"); err != nil {
		t.Fatalf("Load ev2: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source fetched %d times, want one per event", src.calls)
	}

	c.Invalidate("ev1")
	if _, err := c.Load(context.Background(), "ev2"); err != nil {
		t.Fatalf("Load ev2 again: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("invalidating ev1 must not evict ev2, got %d fetches", src.calls)
	}
}
