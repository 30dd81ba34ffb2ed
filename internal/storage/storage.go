// Package storage defines the key-value contract the task list is persisted through.
package storage

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned when a key is empty or cannot be stored by a backend.
var ErrInvalidKey = errors.New("invalid storage key")

// Adapter is a key-value byte store.
// The task store only ever touches one key, but backends must not assume that.
type Adapter interface {
	// Get returns the value stored under key.
	// A missing key is reported as found == false with a nil error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}
