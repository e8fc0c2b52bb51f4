// Package access decides who may touch which registry. Decisions are computed
// fresh on every call; nothing here caches, so a revoked grant takes effect on
// the next request.
package access

import (
	"context"

	id "caseledger/pkg/domain"
)

// RecordChecker answers registry existence questions.
type RecordChecker interface {
	Exists(ctx context.Context, registryID id.RegistryID) (bool, error)
}

// GrantStore answers which registries an attorney is authorized for.
type GrantStore interface {
	IsAuthorized(ctx context.Context, attorneyID id.UserID, registryID id.RegistryID) (bool, error)
	ListAuthorizedRegistries(ctx context.Context, attorneyID id.UserID) ([]id.RegistryID, error)
}

// Engine evaluates role-based access. Every switch is exhaustive over the
// known roles with a default deny, so an unrecognized or missing role can
// never fall through to an allow.
type Engine struct {
	records RecordChecker
	grants  GrantStore
}

// NewEngine builds the access engine.
func NewEngine(records RecordChecker, grants GrantStore) *Engine {
	return &Engine{records: records, grants: grants}
}

// CanAccessRegistry reports whether the user may read or mutate the registry.
// ADMIN and SYSTEM see any registry that exists; ATTORNEY sees only granted
// registries. Unknown roles are denied without touching storage.
func (e *Engine) CanAccessRegistry(ctx context.Context, user id.AppUser, registryID id.RegistryID) (bool, error) {
	switch user.Role {
	case id.RoleAdmin, id.RoleSystem:
		return e.records.Exists(ctx, registryID)
	case id.RoleAttorney:
		return e.grants.IsAuthorized(ctx, user.ID, registryID)
	default:
		return false, nil
	}
}

// CanSearch reports whether the user may list registries at all.
func (e *Engine) CanSearch(user id.AppUser) bool {
	switch user.Role {
	case id.RoleAdmin, id.RoleSystem, id.RoleAttorney:
		return true
	default:
		return false
	}
}

// CanCreateRegistry reports whether the user may open new registries.
func (e *Engine) CanCreateRegistry(user id.AppUser) bool {
	switch user.Role {
	case id.RoleAdmin, id.RoleSystem, id.RoleAttorney:
		return true
	default:
		return false
	}
}

// CanManageGrants reports whether the user may grant or revoke registry
// access for attorneys.
func (e *Engine) CanManageGrants(user id.AppUser) bool {
	switch user.Role {
	case id.RoleAdmin:
		return true
	case id.RoleSystem, id.RoleAttorney:
		return false
	default:
		return false
	}
}

// CanViewAudit reports whether the user may read the access ledger.
func (e *Engine) CanViewAudit(user id.AppUser) bool {
	switch user.Role {
	case id.RoleAdmin, id.RoleSystem:
		return true
	case id.RoleAttorney:
		return false
	default:
		return false
	}
}

// AuthorizedRegistries returns the registries the user may see in a listing.
// The boolean reports whether the user sees everything; when false, the slice
// is the complete allow list.
func (e *Engine) AuthorizedRegistries(ctx context.Context, user id.AppUser) (all bool, ids []id.RegistryID, err error) {
	switch user.Role {
	case id.RoleAdmin, id.RoleSystem:
		return true, nil, nil
	case id.RoleAttorney:
		ids, err := e.grants.ListAuthorizedRegistries(ctx, user.ID)
		return false, ids, err
	default:
		return false, nil, nil
	}
}
