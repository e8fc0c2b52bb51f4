package registry

import (
	"context"

	id "caseledger/pkg/domain"
)

// Store persists registry records and their version history. Implementations
// must allocate version sequences so that two concurrent appends to the same
// registry never receive the same number; the PostgreSQL store relies on the
// unique (registry_id, sequence) constraint, the memory store on a lock.
type Store interface {
	// InsertRecord persists a new registry record. Returns
	// sentinel.ErrConflict if the id already exists.
	InsertRecord(ctx context.Context, record Record) error

	// AppendVersion assigns the next sequence number and persists the
	// version. Returns the stored version with its sequence filled in, or
	// sentinel.ErrNotFound if the registry does not exist.
	AppendVersion(ctx context.Context, version Version) (Version, error)

	// GetRecord returns sentinel.ErrNotFound if the registry does not exist.
	GetRecord(ctx context.Context, registryID id.RegistryID) (Record, error)

	// ListVersions returns all versions for a registry, newest first.
	ListVersions(ctx context.Context, registryID id.RegistryID) ([]Version, error)

	// ListSummaries returns the payload-free listing projection for all
	// registries, most recently updated first.
	ListSummaries(ctx context.Context) ([]Summary, error)

	// UpdateStatus sets the record's status. Returns sentinel.ErrNotFound
	// if the registry does not exist.
	UpdateStatus(ctx context.Context, registryID id.RegistryID, status id.RegistryStatus) error

	// Exists reports whether a registry record with this id is present.
	Exists(ctx context.Context, registryID id.RegistryID) (bool, error)
}
