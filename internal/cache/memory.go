package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	createdAt time.Time
}

// MemoryStore is a mutex-guarded in-process Store. Concurrent writers for
// the same key race benignly: values for identical inputs are equivalent,
// so last-write-wins is acceptable.
type MemoryStore struct {
	mu  sync.Mutex
	m   map[string]memoryEntry
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: map[string]memoryEntry{}, now: time.Now}
}

// NewMemoryStoreWithClock injects a clock for deterministic tests.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{m: map[string]memoryEntry{}, now: now}
}

func memoryKey(callerID, payloadHash string) string {
	return callerID + "|" + payloadHash
}

func (s *MemoryStore) Get(_ context.Context, callerID, payloadHash string) ([]byte, time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[memoryKey(callerID, payloadHash)]
	if !ok {
		return nil, 0, false, nil
	}
	return e.value, s.now().Sub(e.createdAt), true, nil
}

func (s *MemoryStore) Set(_ context.Context, callerID, payloadHash string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[memoryKey(callerID, payloadHash)] = memoryEntry{value: value, createdAt: s.now()}
	return nil
}
