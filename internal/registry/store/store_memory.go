package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"caseledger/internal/registry"
	id "caseledger/pkg/domain"
	"caseledger/pkg/platform/sentinel"
)

// MemoryStore is an in-memory registry store for tests and local runs. The
// single mutex serializes sequence allocation the same way the database
// constraint does in production.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[id.RegistryID]registry.Record
	versions map[id.RegistryID][]registry.Version
}

// NewMemoryStore builds an empty in-memory registry store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[id.RegistryID]registry.Record),
		versions: make(map[id.RegistryID][]registry.Version),
	}
}

func (s *MemoryStore) InsertRecord(_ context.Context, record registry.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; ok {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = record
	return nil
}

func (s *MemoryStore) AppendVersion(_ context.Context, version registry.Version) (registry.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[version.RegistryID]; !ok {
		return registry.Version{}, sentinel.ErrNotFound
	}

	var max int64
	for _, v := range s.versions[version.RegistryID] {
		if v.Sequence > max {
			max = v.Sequence
		}
	}
	version.Sequence = max + 1
	version.Payload = maps.Clone(version.Payload)
	s.versions[version.RegistryID] = append(s.versions[version.RegistryID], version)
	return version, nil
}

func (s *MemoryStore) GetRecord(_ context.Context, registryID id.RegistryID) (registry.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[registryID]
	if !ok {
		return registry.Record{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *MemoryStore) ListVersions(_ context.Context, registryID id.RegistryID) ([]registry.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make([]registry.Version, len(s.versions[registryID]))
	copy(versions, s.versions[registryID])
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Sequence > versions[j].Sequence
	})
	return versions, nil
}

func (s *MemoryStore) ListSummaries(_ context.Context) ([]registry.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]registry.Summary, 0, len(s.records))
	for _, record := range s.records {
		summary := registry.Summary{
			ID:            record.ID,
			SubjectName:   record.SubjectName,
			Status:        record.Status,
			LastUpdatedAt: record.CreatedAt,
		}
		for _, v := range s.versions[record.ID] {
			summary.VersionCount++
			if v.CreatedAt.After(summary.LastUpdatedAt) {
				summary.LastUpdatedAt = v.CreatedAt
			}
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].LastUpdatedAt.Equal(summaries[j].LastUpdatedAt) {
			return summaries[i].ID.String() < summaries[j].ID.String()
		}
		return summaries[i].LastUpdatedAt.After(summaries[j].LastUpdatedAt)
	})
	return summaries, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, registryID id.RegistryID, status id.RegistryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[registryID]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Status = status
	s.records[registryID] = record
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, registryID id.RegistryID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[registryID]
	return ok, nil
}
