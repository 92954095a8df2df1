// Package storage defines the expiring key-value store the authentication
// engine keeps its session state in, together with the in-memory, Redis,
// bbolt and Postgres backends.
//
// Backends are interchangeable: the engine only relies on the Store
// contract, in particular on TakeValue being atomic so that a stored entry
// is consumed at most once even under concurrent requests.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports that a key is absent or its entry has expired.
	// It is a logical outcome, not a backend failure.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable wraps backend I/O failures.
	ErrUnavailable = errors.New("storage: backend unavailable")
)

// Store is an expiring key-value store for opaque byte blobs.
//
// Implementations must treat entries past their time to live as absent and
// may delete them opportunistically on read. A ttl of zero means the entry
// never expires.
type Store interface {
	// SetValue stores value under key, replacing any previous entry.
	SetValue(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// GetValue returns the value stored under key, or ErrNotFound when the
	// key is absent or expired.
	GetValue(ctx context.Context, key string) ([]byte, error)

	// TakeValue atomically returns and deletes the value stored under key.
	// When two callers race on the same key, exactly one receives the value
	// and the other ErrNotFound.
	TakeValue(ctx context.Context, key string) ([]byte, error)

	// UnsetValue deletes key. Deleting an absent key is not an error.
	UnsetValue(ctx context.Context, key string) error
}
