// Package store provides backing store implementations for the
// cache-aside service: Postgres (authoritative SQL storage), Redis, and
// an in-memory store for development and tests. All of them satisfy the
// service layer's BackingStore contract for string keys and byte values.
package store

import "context"

// KV is the concrete store contract shared by the implementations in
// this package.
type KV interface {
	Fetch(ctx context.Context, key string) ([]byte, bool, error)
	Persist(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
