package verification

import (
	"context"
	"time"

	id "caseledger/pkg/domain"
)

// CodeStore holds bcrypt hashes of pending verification codes, keyed by
// registry, with a TTL. Plaintext codes are never stored.
type CodeStore interface {
	// Put stores the code hash, replacing any pending code for the registry.
	Put(ctx context.Context, registryID id.RegistryID, codeHash string, ttl time.Duration) error

	// Get returns the stored hash, or sentinel.ErrNotFound if no code is
	// pending or the TTL has lapsed.
	Get(ctx context.Context, registryID id.RegistryID) (string, error)

	// Delete removes a pending code. Deleting an absent code is not an error.
	Delete(ctx context.Context, registryID id.RegistryID) error
}
