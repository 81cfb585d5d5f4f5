// Package cache implements a capacity-bounded in-memory cache combining
// LRU eviction with per-entry TTL expiration. A hash index gives O(1)
// lookup and a doubly linked list tracks recency; entries are discarded
// when they are the least recently used at capacity, or when an operation
// finds them expired (lazy expiration). An optional background sweeper
// reclaims expired-but-cold entries.
package cache

import "time"

// EvictReason explains why an entry left the cache.
type EvictReason int

const (
	// ReasonCapacity: the entry was the least recently used when the
	// cache needed room for a new key.
	ReasonCapacity EvictReason = iota
	// ReasonExpired: the entry's TTL elapsed and an operation (or the
	// sweeper) reclaimed it.
	ReasonExpired
	// ReasonRemoved: the entry was removed explicitly, typically by
	// write invalidation.
	ReasonRemoved
)

func (r EvictReason) String() string {
	switch r {
	case ReasonCapacity:
		return "capacity"
	case ReasonExpired:
		return "expired"
	case ReasonRemoved:
		return "removed"
	}
	return "unknown"
}

// Interface is the cache contract consumed by the service layer. Both the
// single-lock LRU and the sharded variant satisfy it. All operations are
// safe for concurrent use.
type Interface[K comparable, V any] interface {
	// Get returns the live value for key and marks it most recently
	// used. An expired entry is reclaimed and reported as a miss.
	Get(key K) (V, bool)

	// Put inserts or refreshes an entry. ttl <= 0 means the cache's
	// default TTL. Inserting a new key at capacity evicts the least
	// recently used entry first.
	Put(key K, value V, ttl time.Duration)

	// Remove discards the entry for key if present and reports whether
	// anything was removed.
	Remove(key K) bool

	// Len returns the number of indexed entries. It may include expired
	// entries that no operation has touched yet.
	Len() int

	// Peek returns the live value for key without touching recency
	// order or reclaiming anything. Intended for inspection.
	Peek(key K) (V, bool)
}
