package storage

import (
	"context"
	"sync"
)

// Memory keeps documents in a map. It is the default backend for the demo
// and the test double for everything above it.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(doc))
	copy(out, doc)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := make([]byte, len(value))
	copy(doc, value)
	m.docs[key] = doc
	return nil
}

func (m *Memory) Close() error {
	return nil
}
