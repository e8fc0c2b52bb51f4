package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseledger/internal/registry"
	id "caseledger/pkg/domain"
	"caseledger/pkg/platform/sentinel"
)

func seedRecord(t *testing.T, s *MemoryStore) registry.Record {
	t.Helper()
	record := registry.Record{
		ID:          id.NewRegistryID(),
		SubjectName: "Jane Roe",
		Status:      id.StatusActive,
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.InsertRecord(context.Background(), record))
	return record
}

func TestInsertRecord_RejectsDuplicate(t *testing.T) {
	s := NewMemoryStore()
	record := seedRecord(t, s)

	err := s.InsertRecord(context.Background(), record)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestAppendVersion_AllocatesMonotonicSequence(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	record := seedRecord(t, s)

	for want := int64(1); want <= 3; want++ {
		stored, err := s.AppendVersion(ctx, registry.Version{
			ID:         id.NewVersionID(),
			RegistryID: record.ID,
			Payload:    map[string]any{"caseNumber": want},
		})
		require.NoError(t, err)
		assert.Equal(t, want, stored.Sequence)
	}
}

func TestAppendVersion_UnknownRegistry(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.AppendVersion(context.Background(), registry.Version{
		ID:         id.NewVersionID(),
		RegistryID: id.NewRegistryID(),
	})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestAppendVersion_ConcurrentAppendsNeverShareSequence(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	record := seedRecord(t, s)

	const n = 50
	var wg sync.WaitGroup
	seqs := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stored, err := s.AppendVersion(ctx, registry.Version{
				ID:         id.NewVersionID(),
				RegistryID: record.ID,
			})
			require.NoError(t, err)
			seqs <- stored.Sequence
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool, n)
	for seq := range seqs {
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, n)
}

func TestListVersions_NewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	record := seedRecord(t, s)

	for i := 0; i < 3; i++ {
		_, err := s.AppendVersion(ctx, registry.Version{ID: id.NewVersionID(), RegistryID: record.ID})
		require.NoError(t, err)
	}

	versions, err := s.ListVersions(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, int64(3), versions[0].Sequence)
	assert.Equal(t, int64(1), versions[2].Sequence)
}

func TestListSummaries_OmitsPayloadsAndCountsVersions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	record := seedRecord(t, s)

	_, err := s.AppendVersion(ctx, registry.Version{
		ID:         id.NewVersionID(),
		RegistryID: record.ID,
		Payload:    map[string]any{"ssnLast4": "1234"},
		CreatedAt:  record.CreatedAt.Add(time.Hour),
	})
	require.NoError(t, err)

	summaries, err := s.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, record.SubjectName, summaries[0].SubjectName)
	assert.Equal(t, 1, summaries[0].VersionCount)
	assert.Equal(t, record.CreatedAt.Add(time.Hour), summaries[0].LastUpdatedAt)
}

func TestUpdateStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	record := seedRecord(t, s)

	require.NoError(t, s.UpdateStatus(ctx, record.ID, id.StatusArchived))
	got, err := s.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, id.StatusArchived, got.Status)

	assert.ErrorIs(t, s.UpdateStatus(ctx, id.NewRegistryID(), id.StatusArchived), sentinel.ErrNotFound)
}

func TestExists(t *testing.T) {
	s := NewMemoryStore()
	record := seedRecord(t, s)

	ok, err := s.Exists(context.Background(), record.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(context.Background(), id.NewRegistryID())
	require.NoError(t, err)
	assert.False(t, ok)
}
