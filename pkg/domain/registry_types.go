package domain

import dErrors "caseledger/pkg/domain-errors"

// RegistryStatus is the lifecycle state of a case record. Content never lives
// on the record itself; status is the only mutable field.
type RegistryStatus string

const (
	StatusActive              RegistryStatus = "ACTIVE"
	StatusArchived            RegistryStatus = "ARCHIVED"
	StatusPendingVerification RegistryStatus = "PENDING_VERIFICATION"
	StatusVerified            RegistryStatus = "VERIFIED"
	StatusDisputed            RegistryStatus = "DISPUTED"
)

// ParseRegistryStatus validates a status string against the closed set.
func ParseRegistryStatus(raw string) (RegistryStatus, error) {
	switch RegistryStatus(raw) {
	case StatusActive, StatusArchived, StatusPendingVerification, StatusVerified, StatusDisputed:
		return RegistryStatus(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unrecognized registry status %q", raw)
	}
}

func (s RegistryStatus) String() string { return string(s) }

// SubmittedBy records which kind of actor produced a version.
type SubmittedBy string

const (
	SubmittedBySystem   SubmittedBy = "SYSTEM"
	SubmittedByAttorney SubmittedBy = "ATTORNEY"
	SubmittedByIntake   SubmittedBy = "INTAKE"
)

// ParseSubmittedBy validates a submitter string against the closed set.
func ParseSubmittedBy(raw string) (SubmittedBy, error) {
	switch SubmittedBy(raw) {
	case SubmittedBySystem, SubmittedByAttorney, SubmittedByIntake:
		return SubmittedBy(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unrecognized submitter %q", raw)
	}
}

func (s SubmittedBy) String() string { return string(s) }
