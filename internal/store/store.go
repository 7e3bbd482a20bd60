// Package store persists room documents behind a key/etag interface. Writes
// are conditional on the etag observed at read time, which is all the
// concurrency controller needs for its compare-and-swap cycle.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no document exists under the key.
	ErrNotFound = errors.New("store: not found")
	// ErrStale means the expected etag no longer matches; another writer
	// committed between the caller's read and this write.
	ErrStale = errors.New("store: stale etag")
	// ErrExists means a create-only put found an existing document.
	ErrExists = errors.New("store: already exists")
)

// Store is the engine's only external dependency.
type Store interface {
	// Get returns the current document and its freshness token.
	Get(ctx context.Context, id string) (doc []byte, etag string, err error)

	// Put replaces the whole document atomically. expectedEtag must match
	// the stored one; the empty string means create-only. Returns the new
	// token on success.
	Put(ctx context.Context, id string, doc []byte, expectedEtag string) (string, error)
}
