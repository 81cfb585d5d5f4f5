package cache

import (
	"hash/fnv"
	"time"
)

// Sharded spreads string keys across independently locked LRU shards to
// reduce lock contention under many concurrent callers. Capacity and TTL
// semantics hold per shard, so the global recency order is only
// approximate: a shard evicts its own least recently used entry, which is
// not necessarily the coldest entry cache-wide.
type Sharded[V any] struct {
	shards []*LRU[string, V]
}

// NewSharded creates a sharded cache. The total capacity is divided
// evenly across numShards shards (rounded up, so the effective total may
// slightly exceed capacity). numShards and capacity must be positive.
func NewSharded[V any](numShards, capacity int, defaultTTL time.Duration, opts ...Option[string, V]) *Sharded[V] {
	if numShards <= 0 {
		panic("cache: shard count must be positive")
	}
	perShard := (capacity + numShards - 1) / numShards
	s := &Sharded[V]{shards: make([]*LRU[string, V], numShards)}
	for i := range s.shards {
		s.shards[i] = New[string, V](perShard, defaultTTL, opts...)
	}
	return s
}

func (s *Sharded[V]) shard(key string) *LRU[string, V] {
	h := fnv.New64a()
	h.Write([]byte(key))
	return s.shards[h.Sum64()%uint64(len(s.shards))]
}

func (s *Sharded[V]) Get(key string) (V, bool) { return s.shard(key).Get(key) }

func (s *Sharded[V]) Put(key string, value V, ttl time.Duration) {
	s.shard(key).Put(key, value, ttl)
}

func (s *Sharded[V]) Remove(key string) bool { return s.shard(key).Remove(key) }

func (s *Sharded[V]) Peek(key string) (V, bool) { return s.shard(key).Peek(key) }

func (s *Sharded[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

// StartSweeper starts a background expiry sweeper on every shard.
func (s *Sharded[V]) StartSweeper(interval time.Duration) {
	for _, sh := range s.shards {
		sh.StartSweeper(interval)
	}
}

// Close stops all shard sweepers.
func (s *Sharded[V]) Close() error {
	for _, sh := range s.shards {
		sh.Close()
	}
	return nil
}
