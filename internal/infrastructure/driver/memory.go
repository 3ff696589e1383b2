package driver

import (
	"sync"
	"time"
)

// MemoryStore in-process KeyValueDB for tests and local development
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	value    string
	deadline time.Time // zero means no expiration
}

var _ KeyValueDB = &MemoryStore{}

// NewMemoryStore create an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry)}
}

// SetEX implement KeyValueDB
func (ms *MemoryStore) SetEX(key string, value string, expiration time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry := memoryEntry{value: value}
	if expiration > 0 {
		entry.deadline = time.Now().Add(expiration)
	}
	ms.data[key] = entry
	return nil
}

// Get implement KeyValueDB
func (ms *MemoryStore) Get(key string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, ok := ms.data[key]
	if !ok || entry.expired() {
		return "", ErrKeyNotFound
	}
	return entry.value, nil
}

// Exists implement KeyValueDB
func (ms *MemoryStore) Exists(key string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, ok := ms.data[key]
	return ok && !entry.expired(), nil
}

// Del implement KeyValueDB
func (ms *MemoryStore) Del(keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, key := range keys {
		delete(ms.data, key)
	}
	return nil
}

// Ping implement KeyValueDB
func (ms *MemoryStore) Ping() error {
	return nil
}

func (me memoryEntry) expired() bool {
	return !me.deadline.IsZero() && time.Now().After(me.deadline)
}
