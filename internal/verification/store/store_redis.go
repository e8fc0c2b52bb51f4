package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"caseledger/internal/platform/redis"
	id "caseledger/pkg/domain"
	"caseledger/pkg/platform/sentinel"
)

const codeKeyPrefix = "verify:code:"

// RedisCodeStore keeps pending verification codes in Redis so the TTL is
// enforced by the store itself rather than by application sweeps.
type RedisCodeStore struct {
	client *redis.Client
}

// NewRedisCodeStore builds a Redis-backed code store.
func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func codeKey(registryID id.RegistryID) string {
	return codeKeyPrefix + registryID.String()
}

func (s *RedisCodeStore) Put(ctx context.Context, registryID id.RegistryID, codeHash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, codeKey(registryID), codeHash, ttl).Err(); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, registryID id.RegistryID) (string, error) {
	hash, err := s.client.Get(ctx, codeKey(registryID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load verification code: %w", err)
	}
	return hash, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, registryID id.RegistryID) error {
	if err := s.client.Del(ctx, codeKey(registryID)).Err(); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}
