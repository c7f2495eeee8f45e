package adapter

import (
	"context"
	"quiz-forge/internal/domain"
	"sync"
	"time"
)

type memoryCounter struct {
	value     int64
	expiresAt time.Time
}

// MemoryCounterStore is an in-process domain.CounterStore. It is used when
// Redis is not configured; counters are then per-process only.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	now      func() time.Time
}

// NewMemoryCounterStore creates a MemoryCounterStore. A nil clock means time.Now.
func NewMemoryCounterStore(now func() time.Time) *MemoryCounterStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounterStore{
		counters: make(map[string]*memoryCounter),
		now:      now,
	}
}

var _ domain.CounterStore = (*MemoryCounterStore)(nil)

func (m *MemoryCounterStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, ok := m.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &memoryCounter{expiresAt: now.Add(window)}
		m.counters[key] = c
	}
	c.value++
	return c.value, nil
}

func (m *MemoryCounterStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok {
		return 0, nil
	}
	if !m.now().Before(c.expiresAt) {
		delete(m.counters, key)
		return 0, nil
	}
	return c.value, nil
}
