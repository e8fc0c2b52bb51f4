//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseledger/internal/audit"
	id "caseledger/pkg/domain"
	"caseledger/pkg/testutil/containers"
)

func TestPostgresStore_AppendAndList(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	s := NewPostgresStore(pg.DB)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	regID := id.NewRegistryID()
	actor := id.NewUserID()

	entries := []audit.Entry{
		{ID: id.NewEntryID(), RegistryID: &regID, ActorUserID: &actor, Action: audit.ActionCreated, Metadata: map[string]any{"subjectName": "John Doe"}, Timestamp: base},
		{ID: id.NewEntryID(), RegistryID: &regID, ActorUserID: &actor, Action: audit.ActionUpdated, Timestamp: base.Add(time.Minute)},
		{ID: id.NewEntryID(), Action: audit.ActionSearchPerformed, Timestamp: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, s.Append(ctx, e))
	}

	t.Run("newest first with total count", func(t *testing.T) {
		page, err := s.List(ctx, audit.Filter{}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount)
		require.Len(t, page.Rows, 3)
		assert.Equal(t, audit.ActionSearchPerformed, page.Rows[0].Action)
	})

	t.Run("nullable columns round-trip", func(t *testing.T) {
		page, err := s.List(ctx, audit.Filter{Action: audit.ActionSearchPerformed}, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Rows, 1)
		assert.Nil(t, page.Rows[0].RegistryID)
		assert.Nil(t, page.Rows[0].ActorUserID)
	})

	t.Run("metadata round-trip", func(t *testing.T) {
		page, err := s.List(ctx, audit.Filter{Action: audit.ActionCreated}, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "John Doe", page.Rows[0].Metadata["subjectName"])
	})

	t.Run("date range is half-open", func(t *testing.T) {
		start := base
		end := base.Add(time.Minute)
		page, err := s.List(ctx, audit.Filter{Start: &start, End: &end}, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, audit.ActionCreated, page.Rows[0].Action)
	})

	t.Run("distinct actions", func(t *testing.T) {
		actions, err := s.DistinctActions(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []audit.Action{audit.ActionCreated, audit.ActionUpdated, audit.ActionSearchPerformed}, actions)
	})

	t.Run("every append produced an outbox row", func(t *testing.T) {
		var count int
		require.NoError(t, pg.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_outbox WHERE published_at IS NULL`).Scan(&count))
		assert.Equal(t, 3, count)
	})
}
