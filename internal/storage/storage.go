// Package storage provides the key/value persistence behind the client session, the Go
// counterpart of browser local storage. Backends: in-memory, bolt file, Redis and Postgres.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetItem when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a string key/value store. Writes are synchronous: when SetItem or RemoveItem
// returns nil the change is durable for the backend.
type Storage interface {
	// GetItem returns the value for key, or ErrNotFound.
	GetItem(ctx context.Context, key string) (string, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
	// Close releases the backend. Safe to call more than once.
	Close() error
}
