package store

import (
	"context"
	"sync"
	"time"

	id "caseledger/pkg/domain"
	"caseledger/pkg/platform/sentinel"
)

type memoryCode struct {
	hash      string
	expiresAt time.Time
}

// MemoryCodeStore is an in-memory code store for tests and local runs.
// Expiry is checked lazily on read.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[id.RegistryID]memoryCode
	now   func() time.Time
}

// NewMemoryCodeStore builds an empty in-memory code store.
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[id.RegistryID]memoryCode), now: time.Now}
}

// SetClock overrides the store's clock for expiry tests.
func (s *MemoryCodeStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryCodeStore) Put(_ context.Context, registryID id.RegistryID, codeHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[registryID] = memoryCode{hash: codeHash, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, registryID id.RegistryID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[registryID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if s.now().After(code.expiresAt) {
		delete(s.codes, registryID)
		return "", sentinel.ErrNotFound
	}
	return code.hash, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, registryID id.RegistryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, registryID)
	return nil
}
