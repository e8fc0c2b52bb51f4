package store

import (
	"context"
	"sort"
	"sync"

	id "caseledger/pkg/domain"
)

type grantKey struct {
	attorneyID id.UserID
	registryID id.RegistryID
}

// MemoryGrantStore is an in-memory grant store for tests and local runs.
type MemoryGrantStore struct {
	mu     sync.RWMutex
	grants map[grantKey]bool
}

// NewMemoryGrantStore builds an empty in-memory grant store.
func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{grants: make(map[grantKey]bool)}
}

func (s *MemoryGrantStore) Grant(_ context.Context, attorneyID id.UserID, registryID id.RegistryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grantKey{attorneyID, registryID}] = true
	return nil
}

func (s *MemoryGrantStore) Revoke(_ context.Context, attorneyID id.UserID, registryID id.RegistryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grantKey{attorneyID, registryID}] = false
	return nil
}

func (s *MemoryGrantStore) IsAuthorized(_ context.Context, attorneyID id.UserID, registryID id.RegistryID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[grantKey{attorneyID, registryID}], nil
}

func (s *MemoryGrantStore) ListAuthorizedRegistries(_ context.Context, attorneyID id.UserID) ([]id.RegistryID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []id.RegistryID
	for key, active := range s.grants {
		if active && key.attorneyID == attorneyID {
			ids = append(ids, key.registryID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}
