package persist

import (
	"context"
	"sync"
	"time"
)

// Gateway stores one encoded snapshot plus the wall-clock time it was saved.
type Gateway interface {
	Save(ctx context.Context, data []byte, savedAt time.Time) error
	// Load returns ErrNoSave when nothing has been stored.
	Load(ctx context.Context) (data []byte, savedAt time.Time, err error)
	Clear(ctx context.Context) error
}

// Memory is an in-process Gateway. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	data    []byte
	savedAt time.Time
	saves   int
}

// NewMemory creates an empty memory gateway.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, data []byte, savedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.savedAt = savedAt
	m.saves++
	return nil
}

func (m *Memory) Load(_ context.Context) ([]byte, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, time.Time{}, ErrNoSave
	}
	return append([]byte(nil), m.data...), m.savedAt, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.savedAt = time.Time{}
	return nil
}

// Saves returns how many times Save has been called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
