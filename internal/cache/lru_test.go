package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cafeledger/internal/log"
)

var _ Cache[int] = (*LRUCache[int])(nil)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a should survive, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Second).WithClock(func() time.Time { return now })
	c.Set("k", "v")
	c.Set("k2", "v2")

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expiry")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
}

func TestLRUZeroTTLDisablesCaching(t *testing.T) {
	c := NewLRUCache[int](10, 0)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("zero ttl should not cache")
	}
}

func TestGetOrLoad(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	var calls int32
	load := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := c.GetOrLoad("k", load); err != nil || v != 42 {
				t.Errorf("GetOrLoad = %v, %v", v, err)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}

	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("purge left %d entries", c.Size())
	}
	if _, err := c.GetOrLoad("k", load); err != nil || calls != 2 {
		t.Fatalf("expected reload after purge, calls=%d err=%v", calls, err)
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	boom := errors.New("boom")
	if _, err := c.GetOrLoad("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("errors must not be cached")
	}
}

func TestManagerCleanAll(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](10, time.Second).WithClock(func() time.Time { return now })
	c.Set("a", 1)
	m := NewManager(log.Discard())
	m.Register(c)
	if m.Entries() != 1 {
		t.Fatalf("Entries = %d, want 1", m.Entries())
	}
	now = now.Add(time.Minute)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("CleanAll = %d, want 1", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
