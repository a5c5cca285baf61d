package cache

import (
	"context"
	"testing"
	"time"

	"findash/internal/log"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit for a")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("a should survive, got %q %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", "3") // refreshes b

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("expected nothing left to clean, got %d", n)
	}
	if v, ok := c.Get("b"); !ok || v != "3" {
		t.Fatalf("b should be fresh, got %q %v", v, ok)
	}

	clock.t = clock.t.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
}

func TestLRUPurgeAndStats(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Get("a")
	c.Get("missing")
	c.Purge()

	st := c.Stats()
	if st.Size != 0 || st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	c.Delete("a") // no-op on empty cache
}

func TestManagerSweep(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", "1")
	clock.t = clock.t.Add(time.Minute)

	m := NewManager(log.Discard())
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}

	m.Start(context.Background(), time.Millisecond)
	m.Stop()
	m.Stop() // idempotent after the first call returns
}
