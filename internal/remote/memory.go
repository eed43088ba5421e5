package remote

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob)}
}

func (m *MemoryStore) Fetch(ctx context.Context, key string) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	return &Blob{Data: append([]byte(nil), b.Data...), LastUpdated: b.LastUpdated}, nil
}

func (m *MemoryStore) Push(ctx context.Context, key string, blob Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[key] = Blob{Data: append([]byte(nil), blob.Data...), LastUpdated: blob.LastUpdated}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
