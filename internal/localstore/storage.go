// Package localstore is the device-local key/value storage used by offline
// survey sessions.
package localstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetItem for a missing key.
var ErrNotFound = errors.New("key not found")

// Storage is a string key/value store with last-write-wins semantics.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	// Keys lists stored keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
