package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestSharded_BasicOperations(t *testing.T) {
	c := NewSharded[int](4, 64, time.Minute)

	c.Put("a", 1, 0)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d ok=%v", v, ok)
	}
	if !c.Remove("a") {
		t.Fatal("expected Remove to report removal")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after Remove")
	}
}

func TestSharded_CapacityBound(t *testing.T) {
	const shards, capacity = 4, 16
	c := NewSharded[int](shards, capacity, time.Minute)

	for i := 0; i < 200; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i, 0)
	}
	// Per-shard capacity rounds up, so the total may exceed the nominal
	// capacity by at most shards-1.
	if c.Len() > capacity+shards-1 {
		t.Fatalf("len %d exceeds sharded capacity bound %d", c.Len(), capacity+shards-1)
	}
}

func TestSharded_KeyAffinity(t *testing.T) {
	c := NewSharded[int](8, 80, time.Minute)

	// The same key must always land on the same shard: a Put followed by
	// Get/Peek/Remove must observe it.
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("key-%d", i)
		c.Put(key, i, 0)
		if v, ok := c.Peek(key); !ok || v != i {
			t.Fatalf("expected %s=%d on its shard, got %d ok=%v", key, i, v, ok)
		}
	}
}

func TestSharded_TTLExpiry(t *testing.T) {
	c := NewSharded[string](2, 8, time.Minute)

	c.Put("expiring", "v", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("expiring"); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
}
