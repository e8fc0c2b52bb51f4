package domain

import (
	"github.com/google/uuid"

	dErrors "caseledger/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types keep a registry ID from ever being
// passed where an actor ID is expected; the compiler enforces it.
type (
	// RegistryID identifies one case record.
	RegistryID uuid.UUID
	// VersionID identifies one immutable registry snapshot.
	VersionID uuid.UUID
	// EntryID identifies one access-log entry.
	EntryID uuid.UUID
	// UserID identifies an actor supplied by the identity collaborator.
	UserID uuid.UUID
)

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be empty", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return parsed, nil
}

// ParseRegistryID validates and returns a RegistryID.
func ParseRegistryID(raw string) (RegistryID, error) {
	parsed, err := parseUUID(raw, "registry id")
	return RegistryID(parsed), err
}

// ParseVersionID validates and returns a VersionID.
func ParseVersionID(raw string) (VersionID, error) {
	parsed, err := parseUUID(raw, "version id")
	return VersionID(parsed), err
}

// ParseEntryID validates and returns an EntryID.
func ParseEntryID(raw string) (EntryID, error) {
	parsed, err := parseUUID(raw, "entry id")
	return EntryID(parsed), err
}

// ParseUserID validates and returns a UserID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

// NewRegistryID returns a fresh random RegistryID.
func NewRegistryID() RegistryID { return RegistryID(uuid.New()) }

// NewVersionID returns a fresh random VersionID.
func NewVersionID() VersionID { return VersionID(uuid.New()) }

// NewEntryID returns a fresh random EntryID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

func (i RegistryID) String() string { return uuid.UUID(i).String() }
func (i VersionID) String() string  { return uuid.UUID(i).String() }
func (i EntryID) String() string    { return uuid.UUID(i).String() }
func (i UserID) String() string     { return uuid.UUID(i).String() }

func (i RegistryID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i VersionID) IsNil() bool  { return uuid.UUID(i) == uuid.Nil }
func (i EntryID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i UserID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
