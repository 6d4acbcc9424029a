// Package store provides the host key-value persistence used by WebGraph.
// This file contains the interface and in-memory implementation for testing.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// Storer is the key-value persistence surface the stores are written against.
// It mirrors the host storage API of the browser extension: whole records are
// read and written by key. Get on a missing key returns found=false, not an error.
type Storer interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Lifecycle
	Close() error
}

// MemStore is an in-memory implementation of Storer for testing.
type MemStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		values: make(map[string][]byte),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

func (s *MemStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	// Copy to avoid callers mutating stored bytes
	return append([]byte(nil), value...), true, nil
}

func (s *MemStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *MemStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// =============================================================================
// Helpers
// =============================================================================

// GetJSON reads key and decodes it into a new T. found is false when the key
// has never been written.
func GetJSON[T any](ctx context.Context, s Storer, key string) (*T, bool, error) {
	data, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, true, err
	}
	return &v, true, nil
}

// SetJSON encodes v and writes it under key.
func SetJSON(ctx context.Context, s Storer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
