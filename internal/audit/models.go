package audit

import (
	"time"

	id "caseledger/pkg/domain"
)

// Action is the closed set of auditable actions. Adding an action means
// adding it here; free-form strings never reach the ledger.
type Action string

const (
	ActionViewed                Action = "VIEWED"
	ActionCreated               Action = "CREATED"
	ActionUpdated               Action = "UPDATED"
	ActionVerified              Action = "VERIFIED"
	ActionArchived              Action = "ARCHIVED"
	ActionExported              Action = "EXPORTED"
	ActionDeleted               Action = "DELETED"
	ActionSearchPerformed       Action = "SEARCH_PERFORMED"
	ActionAccessRequested       Action = "ACCESS_REQUESTED"
	ActionAccessGranted         Action = "ACCESS_GRANTED"
	ActionAccessRevoked         Action = "ACCESS_REVOKED"
	ActionVerificationRequested Action = "VERIFICATION_REQUESTED"
)

// ParseAction validates an action string against the closed set.
func ParseAction(raw string) (Action, bool) {
	switch Action(raw) {
	case ActionViewed, ActionCreated, ActionUpdated, ActionVerified,
		ActionArchived, ActionExported, ActionDeleted, ActionSearchPerformed,
		ActionAccessRequested, ActionAccessGranted, ActionAccessRevoked,
		ActionVerificationRequested:
		return Action(raw), true
	default:
		return "", false
	}
}

func (a Action) String() string { return string(a) }

// Entry is one immutable audit fact: who did what, to which registry, when.
// RegistryID is nil for registry-independent actions (a global search);
// ActorUserID is nil for system-originated actions.
type Entry struct {
	ID          id.EntryID
	RegistryID  *id.RegistryID
	ActorUserID *id.UserID
	Action      Action
	Metadata    map[string]any
	Timestamp   time.Time
}

// Filter narrows an audit listing. Zero fields match everything.
type Filter struct {
	Action      Action
	RegistryID  *id.RegistryID
	ActorUserID *id.UserID
	// Start/End bound Timestamp to the half-open interval [Start, End).
	Start *time.Time
	End   *time.Time
}

// Matches reports whether the entry satisfies the filter.
func (f Filter) Matches(e Entry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.RegistryID != nil {
		if e.RegistryID == nil || *e.RegistryID != *f.RegistryID {
			return false
		}
	}
	if f.ActorUserID != nil {
		if e.ActorUserID == nil || *e.ActorUserID != *f.ActorUserID {
			return false
		}
	}
	if f.Start != nil && e.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && !e.Timestamp.Before(*f.End) {
		return false
	}
	return true
}

// Page is one page of a filtered audit listing, newest-first.
type Page struct {
	Rows       []Entry
	TotalCount int
}
