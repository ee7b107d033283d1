package entitlement

import (
	"context"
	"sync"
)

// MemorySlot keeps values in process memory. Values are copied in and out.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string]map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]map[string][]byte)}
}

func (m *MemorySlot) Get(ctx context.Context, scope, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[scope][key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemorySlot) Put(ctx context.Context, scope, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKey, ok := m.values[scope]
	if !ok {
		byKey = make(map[string][]byte)
		m.values[scope] = byKey
	}
	byKey[key] = append([]byte(nil), value...)
	return nil
}

// UnavailableSlot stands in where no persistence medium exists.
type UnavailableSlot struct{}

func (UnavailableSlot) Get(ctx context.Context, scope, key string) ([]byte, error) {
	return nil, ErrUnavailable
}

func (UnavailableSlot) Put(ctx context.Context, scope, key string, value []byte) error {
	return ErrUnavailable
}
