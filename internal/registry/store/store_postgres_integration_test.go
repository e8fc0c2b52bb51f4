//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseledger/internal/registry"
	id "caseledger/pkg/domain"
	"caseledger/pkg/platform/sentinel"
	"caseledger/pkg/testutil/containers"
)

func TestPostgresStore_RecordLifecycle(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	s := NewPostgresStore(pg.DB)

	record := registry.Record{
		ID:          id.NewRegistryID(),
		SubjectName: "Jane Roe",
		Status:      id.StatusActive,
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.InsertRecord(ctx, record))

	t.Run("duplicate insert conflicts", func(t *testing.T) {
		assert.ErrorIs(t, s.InsertRecord(ctx, record), sentinel.ErrConflict)
	})

	t.Run("get round-trips", func(t *testing.T) {
		got, err := s.GetRecord(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.SubjectName, got.SubjectName)
		assert.Equal(t, id.StatusActive, got.Status)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := s.GetRecord(ctx, id.NewRegistryID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("sequences allocate in order", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			stored, err := s.AppendVersion(ctx, registry.Version{
				ID:          id.NewVersionID(),
				RegistryID:  record.ID,
				Payload:     map[string]any{"caseNumber": "CV-2026-001"},
				SubmittedBy: id.SubmittedByAttorney,
				ContentHash: "deadbeef",
				CreatedAt:   record.CreatedAt.Add(time.Duration(want) * time.Minute),
			})
			require.NoError(t, err)
			assert.Equal(t, want, stored.Sequence)
		}
	})

	t.Run("versions come back newest first", func(t *testing.T) {
		versions, err := s.ListVersions(ctx, record.ID)
		require.NoError(t, err)
		require.Len(t, versions, 3)
		assert.Equal(t, int64(3), versions[0].Sequence)
		assert.Equal(t, "CV-2026-001", versions[0].Payload["caseNumber"])
	})

	t.Run("append to missing registry", func(t *testing.T) {
		_, err := s.AppendVersion(ctx, registry.Version{
			ID:         id.NewVersionID(),
			RegistryID: id.NewRegistryID(),
		})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("summaries count versions and track latest update", func(t *testing.T) {
		summaries, err := s.ListSummaries(ctx)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, 3, summaries[0].VersionCount)
		assert.Equal(t, record.CreatedAt.Add(3*time.Minute), summaries[0].LastUpdatedAt.UTC())
	})

	t.Run("status update", func(t *testing.T) {
		require.NoError(t, s.UpdateStatus(ctx, record.ID, id.StatusArchived))
		got, err := s.GetRecord(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, id.StatusArchived, got.Status)

		assert.ErrorIs(t, s.UpdateStatus(ctx, id.NewRegistryID(), id.StatusArchived), sentinel.ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := s.Exists(ctx, record.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
