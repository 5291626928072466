package localstate

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Contents are lost on exit.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.slots[key]), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = bytes.Clone(data)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
