package store

import (
	"context"
	"sync"
)

// Memory is a process-local Backend used for tests and ephemeral runs.
type Memory struct {
	mu   sync.RWMutex
	data map[Namespace]map[string][]byte
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{data: map[Namespace]map[string][]byte{
		NamespaceCache: {},
		NamespacePrefs: {},
	}}
}

func (m *Memory) Get(_ context.Context, ns Namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[ns][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) PutBatch(_ context.Context, ns Namespace, entries []KV) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[ns][e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, ns Namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[ns], key)
	return nil
}

func (m *Memory) Close() error { return nil }
