// internal/cache/cache.go
// Package cache implements the cache-aside layer in front of the store.
// Cached values are serving-shaped aggregates; the store remains the system
// of record and every cached value can be rebuilt from it.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// KV is a minimal key-value cache with per-key TTLs. Implementations must be
// safe for concurrent use. Values are opaque serialized bytes.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Ping reports whether the backing cache is reachable.
	Ping(ctx context.Context) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryKV is an in-process KV for development and tests.
type memoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an in-process cache backend.
func NewMemory() KV {
	return &memoryKV{entries: make(map[string]memoryEntry)}
}

func (m *memoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (m *memoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: stored, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *memoryKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *memoryKV) Ping(ctx context.Context) error { return nil }
