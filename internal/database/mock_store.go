// file: internal/database/mock_store.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package database

import (
	"context"
	"sync"
)

// MemoryKV keeps values in a map. Used for the "memory" backend and in tests.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Close() error { return nil }

// MockKV is a simple mock implementation for testing failure paths.
// Nil funcs fall back to an internal MemoryKV.
type MockKV struct {
	ReadFunc  func(ctx context.Context, key string) ([]byte, error)
	WriteFunc func(ctx context.Context, key string, value []byte) error
	CloseFunc func() error

	once sync.Once
	mem  *MemoryKV
}

func (m *MockKV) fallback() *MemoryKV {
	m.once.Do(func() { m.mem = NewMemoryKV() })
	return m.mem
}

func (m *MockKV) Read(ctx context.Context, key string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, key)
	}
	return m.fallback().Read(ctx, key)
}

func (m *MockKV) Write(ctx context.Context, key string, value []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, key, value)
	}
	return m.fallback().Write(ctx, key, value)
}

func (m *MockKV) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
