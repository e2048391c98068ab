package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It backs ephemeral runs and tests.
type Memory struct {
	mu     sync.Mutex
	data   map[string]string
	writes int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Write applies entries under one lock so readers never observe a partial batch.
func (m *Memory) Write(_ context.Context, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.Delete {
			delete(m.data, e.Key)
			continue
		}
		m.data[e.Key] = e.Value
	}
	m.writes++
	return nil
}

// Writes returns how many Write calls have been applied.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
