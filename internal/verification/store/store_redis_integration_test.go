//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformredis "caseledger/internal/platform/redis"
	id "caseledger/pkg/domain"
	"caseledger/pkg/platform/sentinel"
	"caseledger/pkg/testutil/containers"
)

func TestRedisCodeStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	s := NewRedisCodeStore(&platformredis.Client{Client: rc.Client})

	regID := id.NewRegistryID()

	t.Run("missing code", func(t *testing.T) {
		_, err := s.Get(ctx, regID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, regID, "$2a$10$hash", time.Minute))
		hash, err := s.Get(ctx, regID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$hash", hash)
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, regID, "$2a$10$other", time.Minute))
		hash, err := s.Get(ctx, regID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$other", hash)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, regID))
		_, err := s.Get(ctx, regID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		require.NoError(t, s.Delete(ctx, regID))
	})

	t.Run("ttl expires the code", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, regID, "$2a$10$short", 500*time.Millisecond))
		time.Sleep(time.Second)
		_, err := s.Get(ctx, regID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
