package registry

import (
	"time"

	"caseledger/internal/audit"
	id "caseledger/pkg/domain"
)

// Record is the stable identity of a case registry. Content never lives here;
// every payload is a version row, and status is the only mutable field.
type Record struct {
	ID          id.RegistryID
	SubjectName string
	Status      id.RegistryStatus
	CreatedAt   time.Time
}

// Version is one immutable snapshot of a registry's content. Sequence is
// allocated by the store at insert time and is the sole arbiter of recency.
type Version struct {
	ID          id.VersionID
	RegistryID  id.RegistryID
	Payload     map[string]any
	SubmittedBy id.SubmittedBy
	ContentHash string
	Sequence    int64
	CreatedAt   time.Time
}

// Aggregate is the full read model for a single registry: the record, its
// versions newest first, and the access-log entries that reference it.
type Aggregate struct {
	Record       Record
	Versions     []Version
	AuditEntries []audit.Entry
}

// LatestVersion returns the highest-sequence version. Every registry has at
// least one version from creation, so callers may rely on ok being true for
// any aggregate loaded from a store.
func (a Aggregate) LatestVersion() (Version, bool) {
	if len(a.Versions) == 0 {
		return Version{}, false
	}
	return a.Versions[0], true
}

// Summary is the listing projection. It deliberately omits payloads so that
// browsing all registries never exposes record content.
type Summary struct {
	ID            id.RegistryID
	SubjectName   string
	Status        id.RegistryStatus
	VersionCount  int
	LastUpdatedAt time.Time
}
