// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"todo/internal/storage"
)

// FakeStore is an in-memory implementation of storage.Adapter for testing.
// It records every successful Set so tests can assert write order.
type FakeStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes map[string][][]byte
	sets   int

	// Error injection for testing
	GetErr error
	SetErr error

	// SetHook, when set, runs before each Set and may block to simulate slow I/O.
	SetHook func(key string, value []byte)
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string][]byte),
		writes: make(map[string][][]byte),
	}
}

// Put seeds a value without recording it as a write.
func (f *FakeStore) Put(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = append([]byte(nil), value...)
}

// Value returns the current value under key.
func (f *FakeStore) Value(key string) ([]byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Writes returns the values written to key in the order they landed.
func (f *FakeStore) Writes(key string) [][]byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([][]byte, len(f.writes[key]))
	copy(result, f.writes[key])
	return result
}

// SetCalls returns how many times Set was called, including failed calls.
func (f *FakeStore) SetCalls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sets
}

// SetFailure replaces SetErr under the lock; safe to call while writes are in flight.
func (f *FakeStore) SetFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetErr = err
}

// Get implements storage.Adapter.
func (f *FakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.GetErr != nil {
		return nil, false, f.GetErr
	}
	if key == "" {
		return nil, false, storage.ErrInvalidKey
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements storage.Adapter.
func (f *FakeStore) Set(ctx context.Context, key string, value []byte) error {
	if f.SetHook != nil {
		f.SetHook(key, value)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.SetErr != nil {
		return f.SetErr
	}
	if key == "" {
		return storage.ErrInvalidKey
	}
	v := append([]byte(nil), value...)
	f.values[key] = v
	f.writes[key] = append(f.writes[key], v)
	return nil
}
