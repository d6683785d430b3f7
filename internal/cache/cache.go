// Package cache provides the explicit TTL cache used for dashboard aggregates
// and tenant-derived artifacts (CSS, system prompts).
//
// Values are stored JSON-encoded in both backends so a value read from Redis
// and one read from memory decode identically. A miss is never an error:
// callers recompute and Set. The cache is an optimization only.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Cache is the contract consumed by services.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether it
	// was present and unexpired.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set stores v under key for TTL().
	Set(ctx context.Context, key string, v any) error
	// Invalidate removes the given keys.
	Invalidate(ctx context.Context, keys ...string) error
	// InvalidatePrefix removes every key starting with prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error
	// TTL is the lifetime applied by Set.
	TTL() time.Duration
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process Cache guarded by a mutex.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory returns an empty in-memory cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{items: make(map[string]entry), ttl: ttl, now: time.Now}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = entry{data: b, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// Invalidate implements Cache.
func (m *Memory) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}

// InvalidatePrefix implements Cache.
func (m *Memory) InvalidatePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	m.mu.Unlock()
	return nil
}

// TTL implements Cache.
func (m *Memory) TTL() time.Duration { return m.ttl }

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
