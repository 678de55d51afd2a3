package cartstore

import (
	"context"
	"sync"
)

// MemoryStorage keeps records in process memory. It backs tests and the
// "memory" storage driver.
type MemoryStorage struct {
	mu      sync.Mutex
	records map[string][]byte
	watches map[string]map[int]chan Change
	nextID  int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string][]byte),
		watches: make(map[string]map[int]chan Change),
	}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, data []byte, origin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), data...)
	for _, ch := range m.watches[key] {
		// A full buffer already holds a pending change; the reader reloads
		// the latest record either way.
		select {
		case ch <- Change{Key: key, Origin: origin}:
		default:
		}
	}
	return nil
}

// Put writes a raw record without notifying watchers.
func (m *MemoryStorage) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), data...)
}

// Delete drops a record without notifying watchers.
func (m *MemoryStorage) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
}

func (m *MemoryStorage) Watch(ctx context.Context, key string) (<-chan Change, error) {
	ch := make(chan Change, 16)
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.watches[key] == nil {
		m.watches[key] = make(map[int]chan Change)
	}
	m.watches[key][id] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watches[key], id)
		if len(m.watches[key]) == 0 {
			delete(m.watches, key)
		}
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}
