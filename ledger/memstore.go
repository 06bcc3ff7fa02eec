package ledger

import (
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory Store. Values are copied on the way in and out so
// readers always observe a consistent snapshot regardless of what the caller
// does with the returned bytes. Reads never block other reads.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (m *MemStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemStore) List(prefix string) ([]KV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kvs := []KV{}
	for key, value := range m.data {
		if strings.HasPrefix(key, prefix) {
			kvs = append(kvs, KV{Key: key, Value: append([]byte(nil), value...)})
		}
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
	return kvs, nil
}
