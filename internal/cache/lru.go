package cache

import (
	"sync"
	"time"
)

// node is a list element. The index map and the recency list share nodes:
// the map owns the key -> node association, the list owns the ordering.
// head is the most recently used node, tail the least recently used.
type node[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero means the entry never expires
	prev      *node[K, V]
	next      *node[K, V]
}

func (n *node[K, V]) expired(now time.Time) bool {
	return !n.expiresAt.IsZero() && !n.expiresAt.After(now)
}

// LRU is the single-lock cache implementation. One mutex guards the whole
// structure, so every public operation is atomic to all observers.
type LRU[K comparable, V any] struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	items      map[K]*node[K, V]
	head       *node[K, V]
	tail       *node[K, V]
	onEvict    func(key K, value V, reason EvictReason)

	sweepStop chan struct{}
	sweepWG   sync.WaitGroup
}

// Option configures an LRU at construction time.
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict registers a callback invoked whenever an entry leaves the
// cache, with the reason. The callback runs with the cache lock held and
// must not call back into the cache.
func WithOnEvict[K comparable, V any](fn func(key K, value V, reason EvictReason)) Option[K, V] {
	return func(c *LRU[K, V]) { c.onEvict = fn }
}

// New creates an LRU cache holding at most capacity entries. Entries
// stored without an explicit TTL expire after defaultTTL; a defaultTTL of
// zero or less means such entries never expire. capacity must be positive.
func New[K comparable, V any](capacity int, defaultTTL time.Duration, opts ...Option[K, V]) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	c := &LRU[K, V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[K]*node[K, V], capacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if n.expired(time.Now()) {
		c.deleteNode(n, ReasonExpired)
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	return n.value, true
}

func (c *LRU[K, V]) Put(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	if n, ok := c.items[key]; ok {
		// Refresh in place; size is unchanged so nothing is evicted.
		n.value = value
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return
	}

	// Reclaim expired tail entries first; they are dead whether or not
	// the cache is full.
	for c.tail != nil && c.tail.expired(now) {
		c.deleteNode(c.tail, ReasonExpired)
	}
	if len(c.items) >= c.capacity {
		c.deleteNode(c.tail, ReasonCapacity)
	}

	n := &node[K, V]{key: key, value: value, expiresAt: expiresAt}
	c.pushFront(n)
	c.items[key] = n
}

func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return false
	}
	c.deleteNode(n, ReasonRemoved)
	return true
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Peek reports whether key holds a live entry without promoting it or
// reclaiming it.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok || n.expired(time.Now()) {
		var zero V
		return zero, false
	}
	return n.value, true
}

// StartSweeper launches a background goroutine that periodically reclaims
// expired entries, bounding memory held by expired-but-unaccessed keys.
// Lazy expiration alone never touches keys that are written once and never
// read again. Call Close to stop it.
func (c *LRU[K, V]) StartSweeper(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sweepStop != nil || interval <= 0 {
		return
	}
	c.sweepStop = make(chan struct{})
	c.sweepWG.Add(1)
	go c.sweepLoop(interval, c.sweepStop)
}

// Close stops the sweeper goroutine, if one is running. The cache itself
// remains usable.
func (c *LRU[K, V]) Close() error {
	c.mu.Lock()
	stop := c.sweepStop
	c.sweepStop = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
		c.sweepWG.Wait()
	}
	return nil
}

func (c *LRU[K, V]) sweepLoop(interval time.Duration, stop chan struct{}) {
	defer c.sweepWG.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *LRU[K, V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for _, n := range c.items {
		if n.expired(now) {
			c.deleteNode(n, ReasonExpired)
		}
	}
}

// ─── list mechanics ─────────────────────────────────────────────────────

func (c *LRU[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev == nil && c.head != n {
		panic("cache: node detached from list but still indexed")
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if c.head == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LRU[K, V]) deleteNode(n *node[K, V], reason EvictReason) {
	c.unlink(n)
	delete(c.items, n.key)
	if c.onEvict != nil {
		c.onEvict(n.key, n.value, reason)
	}
}
