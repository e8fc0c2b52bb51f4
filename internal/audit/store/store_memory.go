package store

import (
	"context"
	"sort"
	"sync"

	"caseledger/internal/audit"
)

// MemoryStore is an in-memory access ledger used in tests and local
// development. Append-only by construction: nothing in its API mutates or
// removes an entry once appended.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

// NewMemoryStore builds an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter audit.Filter, page, pageSize int) (audit.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]audit.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	rows := append([]audit.Entry{}, matched[start:end]...)
	return audit.Page{Rows: rows, TotalCount: total}, nil
}

func (s *MemoryStore) DistinctActions(_ context.Context) ([]audit.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[audit.Action]struct{})
	for _, e := range s.entries {
		seen[e.Action] = struct{}{}
	}
	actions := make([]audit.Action, 0, len(seen))
	for a := range seen {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions, nil
}

// Len reports the number of entries; test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
