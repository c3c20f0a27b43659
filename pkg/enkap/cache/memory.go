package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in process Backend. Expired entries are dropped on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry

	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: map[string]entry{},
		Now:     time.Now,
	}
}

func (m *Memory) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}

	if !m.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}

	return e.value, true, nil
}

func (m *Memory) Write(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: value, expiresAt: m.Now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}
