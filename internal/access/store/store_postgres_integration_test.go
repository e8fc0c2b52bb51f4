//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseledger/internal/registry"
	registrystore "caseledger/internal/registry/store"
	id "caseledger/pkg/domain"
	"caseledger/pkg/testutil/containers"
)

func TestPostgresGrantStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	grants := NewPostgresGrantStore(pg.DB)
	records := registrystore.NewPostgresStore(pg.DB)

	newRegistry := func() id.RegistryID {
		record := registry.Record{
			ID:          id.NewRegistryID(),
			SubjectName: "Jane Roe",
			Status:      id.StatusActive,
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, records.InsertRecord(ctx, record))
		return record.ID
	}

	regA, regB := newRegistry(), newRegistry()
	attorney := id.NewUserID()

	t.Run("no grant means not authorized", func(t *testing.T) {
		ok, err := grants.IsAuthorized(ctx, attorney, regA)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("grant authorizes exactly one registry", func(t *testing.T) {
		require.NoError(t, grants.Grant(ctx, attorney, regA))

		ok, err := grants.IsAuthorized(ctx, attorney, regA)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = grants.IsAuthorized(ctx, attorney, regB)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("grant is idempotent", func(t *testing.T) {
		require.NoError(t, grants.Grant(ctx, attorney, regA))
	})

	t.Run("list returns active grants only", func(t *testing.T) {
		require.NoError(t, grants.Grant(ctx, attorney, regB))
		require.NoError(t, grants.Revoke(ctx, attorney, regA))

		ids, err := grants.ListAuthorizedRegistries(ctx, attorney)
		require.NoError(t, err)
		assert.Equal(t, []id.RegistryID{regB}, ids)
	})

	t.Run("regrant reactivates a revoked row", func(t *testing.T) {
		require.NoError(t, grants.Grant(ctx, attorney, regA))
		ok, err := grants.IsAuthorized(ctx, attorney, regA)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
