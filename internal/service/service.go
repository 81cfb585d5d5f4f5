// Package service implements the cache-aside read/write policy: reads go
// through the cache and fall back to the backing store on miss, writes go
// to the store first and invalidate the cached entry rather than update
// it in place.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/halocache/halo/internal/cache"
	"github.com/halocache/halo/internal/logging"
	"github.com/halocache/halo/internal/metrics"
)

// BackingStore is the authoritative data source the cache accelerates.
// Fetch reports found=false when the key does not exist; that is not an
// error. Store errors are opaque to this package and surface unchanged.
type BackingStore[K comparable, V any] interface {
	Fetch(ctx context.Context, key K) (V, bool, error)
	Persist(ctx context.Context, key K, value V) error
}

// Deleter is an optional BackingStore capability for removing keys.
// Stores that cannot delete simply do not implement it.
type Deleter[K comparable] interface {
	Delete(ctx context.Context, key K) error
}

// Service wraps a cache and a backing store.
//
// Read is read-through: a hit returns immediately with no store access; a
// miss fetches from the store and populates the cache with the default
// TTL. A key absent from the store is NOT cached, so a deleted key cannot
// serve stale from the cache.
//
// Write is invalidate-on-write: the store is updated first, then the
// cached entry is removed. Updating the cache in place instead would race
// with a concurrent reader repopulating it with the value being
// overwritten.
//
// Two concurrent Reads missing on the same key both hit the store unless
// WithSingleflight is set; the duplicate fetch is wasted work, not a
// correctness problem (last Put wins).
type Service[K comparable, V any] struct {
	cache  cache.Interface[K, V]
	store  BackingStore[K, V]
	log    *slog.Logger
	flight *singleflight.Group
	keyFn  func(K) string
}

// Option configures a Service.
type Option[K comparable, V any] func(*Service[K, V])

// WithSingleflight collapses concurrent store fetches for the same key
// into one. keyFn maps a cache key to the deduplication key. The shared
// fetch runs under the first caller's context: callers that join it are
// not released by cancelling their own context, and cancellation of the
// leader's context fails every joined caller.
func WithSingleflight[K comparable, V any](keyFn func(K) string) Option[K, V] {
	return func(s *Service[K, V]) {
		s.flight = new(singleflight.Group)
		s.keyFn = keyFn
	}
}

// WithLogger overrides the operational logger.
func WithLogger[K comparable, V any](log *slog.Logger) Option[K, V] {
	return func(s *Service[K, V]) { s.log = log }
}

// New creates a cache-aside service over c and store.
func New[K comparable, V any](c cache.Interface[K, V], store BackingStore[K, V], opts ...Option[K, V]) *Service[K, V] {
	s := &Service[K, V]{
		cache: c,
		store: store,
		log:   logging.Op(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the value for key, from the cache when possible. found is
// false when the key exists in neither the cache nor the store. A store
// error is returned unchanged and leaves the cache untouched.
func (s *Service[K, V]) Read(ctx context.Context, key K) (V, bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordOperationDuration("read", durationMs(start))
	}()

	if v, ok := s.cache.Get(key); ok {
		metrics.RecordRead(true)
		return v, true, nil
	}
	metrics.RecordRead(false)

	if s.flight != nil {
		return s.fetchShared(ctx, key)
	}
	return s.fetchAndFill(ctx, key)
}

// Write persists value to the backing store and, on success, invalidates
// the cached entry so the next Read repopulates it. On store failure the
// cache is untouched and the error is returned unchanged.
func (s *Service[K, V]) Write(ctx context.Context, key K, value V) error {
	start := time.Now()
	defer func() {
		metrics.RecordOperationDuration("write", durationMs(start))
	}()

	if err := s.store.Persist(ctx, key, value); err != nil {
		metrics.RecordStoreOp("persist", false)
		s.log.Warn("store persist failed", "error", err)
		return err
	}
	metrics.RecordStoreOp("persist", true)

	s.cache.Remove(key)
	metrics.SetEntries(s.cache.Len())
	return nil
}

// Delete removes key from the backing store and, on success, invalidates
// the cached entry. Like Write, the store is updated first and the cache
// is untouched on store failure. Stores without the Deleter capability
// return an error.
func (s *Service[K, V]) Delete(ctx context.Context, key K) error {
	start := time.Now()
	defer func() {
		metrics.RecordOperationDuration("delete", durationMs(start))
	}()

	del, ok := s.store.(Deleter[K])
	if !ok {
		return fmt.Errorf("delete not supported by backing store")
	}

	if err := del.Delete(ctx, key); err != nil {
		metrics.RecordStoreOp("delete", false)
		s.log.Warn("store delete failed", "error", err)
		return err
	}
	metrics.RecordStoreOp("delete", true)

	s.cache.Remove(key)
	metrics.SetEntries(s.cache.Len())
	return nil
}

func (s *Service[K, V]) fetchAndFill(ctx context.Context, key K) (V, bool, error) {
	v, found, err := s.store.Fetch(ctx, key)
	if err != nil {
		metrics.RecordStoreOp("fetch", false)
		s.log.Warn("store fetch failed", "error", err)
		var zero V
		return zero, false, err
	}
	metrics.RecordStoreOp("fetch", true)

	if !found {
		// Absent keys are not cached; see the Service doc.
		var zero V
		return zero, false, nil
	}

	s.cache.Put(key, v, 0)
	metrics.SetEntries(s.cache.Len())
	return v, true, nil
}

type fetchResult[V any] struct {
	value V
	found bool
}

func (s *Service[K, V]) fetchShared(ctx context.Context, key K) (V, bool, error) {
	res, err, _ := s.flight.Do(s.keyFn(key), func() (any, error) {
		v, found, ferr := s.fetchAndFill(ctx, key)
		if ferr != nil {
			return nil, ferr
		}
		return fetchResult[V]{value: v, found: found}, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	r := res.(fetchResult[V])
	return r.value, r.found, nil
}

func durationMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
