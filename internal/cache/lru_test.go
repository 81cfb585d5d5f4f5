package cache

import (
	"testing"
	"time"
)

func TestLRU_PutAndGet(t *testing.T) {
	c := New[string, int](4, time.Minute)

	c.Put("a", 1, 0)
	v, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit for 'a'")
	}
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestLRU_CapacityBound(t *testing.T) {
	const capacity = 3
	c := New[int, int](capacity, time.Minute)

	for i := 0; i < 10; i++ {
		c.Put(i, i, 0)
		if c.Len() > capacity {
			t.Fatalf("len %d exceeds capacity %d after put %d", c.Len(), capacity, i)
		}
	}
	if c.Len() != capacity {
		t.Fatalf("expected len %d, got %d", capacity, c.Len())
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](3, time.Minute)

	c.Put("k1", 1, 0)
	c.Put("k2", 2, 0)
	c.Put("k3", 3, 0)

	// k1 is the oldest; inserting a fourth key must evict it.
	c.Put("k4", 4, 0)

	if _, ok := c.Get("k1"); ok {
		t.Fatal("expected k1 to be evicted")
	}
	for _, k := range []string{"k2", "k3", "k4"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}
}

func TestLRU_GetRefreshesRecency(t *testing.T) {
	c := New[string, int](3, time.Minute)

	c.Put("k1", 1, 0)
	c.Put("k2", 2, 0)
	c.Put("k3", 3, 0)

	// Touch k1 so k2 becomes the eviction victim.
	if _, ok := c.Get("k1"); !ok {
		t.Fatal("expected hit for k1")
	}
	c.Put("k4", 4, 0)

	if _, ok := c.Get("k2"); ok {
		t.Fatal("expected k2 to be evicted after k1 was touched")
	}
	if _, ok := c.Get("k1"); !ok {
		t.Fatal("expected k1 to survive")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := New[string, string](4, time.Minute)

	c.Put("expiring", "value", 10*time.Millisecond)

	v, ok := c.Get("expiring")
	if !ok || v != "value" {
		t.Fatalf("expected hit immediately after put, got %q ok=%v", v, ok)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("expiring"); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
	// The expired entry is reclaimed by the failed Get.
	if c.Len() != 0 {
		t.Fatalf("expected len 0 after reclamation, got %d", c.Len())
	}
}

func TestLRU_DefaultTTLApplies(t *testing.T) {
	c := New[string, int](4, 10*time.Millisecond)

	c.Put("k", 1, 0) // ttl <= 0 means default
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry stored with default TTL to expire")
	}
}

func TestLRU_ZeroDefaultTTLNeverExpires(t *testing.T) {
	c := New[string, int](4, 0)

	c.Put("forever", 1, 0)
	time.Sleep(15 * time.Millisecond)

	if _, ok := c.Get("forever"); !ok {
		t.Fatal("expected entry without TTL to remain")
	}
}

func TestLRU_RefreshDoesNotEvict(t *testing.T) {
	c := New[string, int](2, time.Minute)

	c.Put("a", 1, 0)
	c.Put("b", 2, 0)

	// Updating an existing key at capacity must not evict anything.
	c.Put("a", 10, 0)

	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
	if v, ok := c.Get("a"); !ok || v != 10 {
		t.Fatalf("expected refreshed value 10, got %d ok=%v", v, ok)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected b to survive a refresh of a")
	}
}

func TestLRU_ExpiredTailReclaimedBeforeLiveEviction(t *testing.T) {
	c := New[string, int](2, time.Minute)

	c.Put("stale", 1, 10*time.Millisecond)
	c.Put("live", 2, 0)
	time.Sleep(20 * time.Millisecond)

	// The expired tail is reclaimed, so the live entry survives even
	// though the cache was full.
	c.Put("fresh", 3, 0)

	if _, ok := c.Get("live"); !ok {
		t.Fatal("expected live entry to survive when an expired one could be reclaimed")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("expected fresh entry to be present")
	}
}

func TestLRU_Remove(t *testing.T) {
	c := New[string, int](4, time.Minute)

	c.Put("k", 1, 0)
	if !c.Remove("k") {
		t.Fatal("expected Remove to report removal")
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Remove")
	}
	if c.Remove("k") {
		t.Fatal("expected Remove of absent key to report false")
	}
}

func TestLRU_PeekDoesNotPromote(t *testing.T) {
	c := New[string, int](2, time.Minute)

	c.Put("a", 1, 0)
	c.Put("b", 2, 0)

	// Peek must not refresh recency, so a stays the eviction victim.
	if v, ok := c.Peek("a"); !ok || v != 1 {
		t.Fatalf("expected Peek hit for a, got %d ok=%v", v, ok)
	}
	c.Put("c", 3, 0)

	if _, ok := c.Peek("a"); ok {
		t.Fatal("expected a to be evicted despite the Peek")
	}
	if _, ok := c.Peek("b"); !ok {
		t.Fatal("expected b to survive")
	}
}

func TestLRU_ConcreteScenario(t *testing.T) {
	c := New[string, int](2, time.Hour)

	c.Put("a", 1, 0)
	c.Put("b", 2, 0)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	c.Put("c", 3, 0) // b is now least recently used

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d ok=%v", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c=3, got %d ok=%v", v, ok)
	}
}

func TestLRU_OnEvictReasons(t *testing.T) {
	reasons := make(map[string]EvictReason)
	c := New(2, time.Minute, WithOnEvict(func(key string, _ int, reason EvictReason) {
		reasons[key] = reason
	}))

	c.Put("capacity-victim", 1, 0)
	c.Put("expired", 2, 10*time.Millisecond)
	c.Put("removed", 3, 0) // evicts capacity-victim

	if got := reasons["capacity-victim"]; got != ReasonCapacity {
		t.Fatalf("expected capacity eviction, got %v", got)
	}

	time.Sleep(20 * time.Millisecond)
	c.Get("expired")
	if got := reasons["expired"]; got != ReasonExpired {
		t.Fatalf("expected expired eviction, got %v", got)
	}

	c.Remove("removed")
	if got := reasons["removed"]; got != ReasonRemoved {
		t.Fatalf("expected removal eviction, got %v", got)
	}
}

func TestLRU_Sweeper(t *testing.T) {
	c := New[string, int](8, time.Minute)
	c.StartSweeper(5 * time.Millisecond)
	defer c.Close()

	c.Put("cold", 1, 10*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	// The sweeper reclaims the expired entry without any access to it.
	if c.Len() != 0 {
		t.Fatalf("expected sweeper to reclaim expired entry, len=%d", c.Len())
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := New[int, int](64, time.Minute)

	done := make(chan struct{})
	for w := 0; w < 4; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 500; i++ {
				k := (w*31 + i) % 100
				c.Put(k, i, 0)
				c.Get(k)
				if i%7 == 0 {
					c.Remove(k)
				}
			}
		}(w)
	}
	for w := 0; w < 4; w++ {
		<-done
	}

	if c.Len() > 64 {
		t.Fatalf("capacity invariant violated under concurrency: len=%d", c.Len())
	}
}
