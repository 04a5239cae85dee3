package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	timestamp time.Time
}

// Memory is an in-process cache with a TTL and an upper bound on entries.
// Expired entries are dropped by a periodic cleanup; when the bound is exceeded
// the oldest entries go first.
type Memory struct {
	mu              sync.RWMutex
	entries         map[string]memoryEntry
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	now             func() time.Time
	done            chan struct{}
	closeOnce       sync.Once
}

// NewMemory creates a memory cache and starts its cleanup goroutine.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	m := &Memory{
		entries:         make(map[string]memoryEntry),
		ttl:             ttl,
		maxEntries:      maxEntries,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	go m.periodicCleanup()
	return m
}

func (m *Memory) periodicCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

// cleanup removes expired entries and enforces the size bound.
func (m *Memory) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
}

// expired reports whether entry has reached its TTL at now.
func (m *Memory) expired(entry memoryEntry, now time.Time) bool {
	return now.Sub(entry.timestamp) >= m.ttl
}

func (m *Memory) cleanupLocked() {
	now := m.now()
	for key, entry := range m.entries {
		if m.expired(entry, now) {
			delete(m.entries, key)
		}
	}

	if m.maxEntries <= 0 || len(m.entries) <= m.maxEntries {
		return
	}

	type keyed struct {
		key       string
		timestamp time.Time
	}
	ordered := make([]keyed, 0, len(m.entries))
	for key, entry := range m.entries {
		ordered = append(ordered, keyed{key, entry.timestamp})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].timestamp.Before(ordered[j].timestamp)
	})
	for i := 0; i < len(ordered)-m.maxEntries; i++ {
		delete(m.entries, ordered[i].key)
	}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()

	if !found || m.expired(entry, m.now()) {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{data: data, timestamp: m.now()}
	if m.maxEntries > 0 && len(m.entries) > m.maxEntries {
		m.cleanupLocked()
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the cleanup goroutine.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
