// Package gateway is the single enforcement point between transport handlers
// and the registry. Handlers call Require* before touching a service; a nil
// return is the only path to the data.
package gateway

import (
	"context"
	"log/slog"

	"caseledger/internal/access"
	"caseledger/internal/audit"
	"caseledger/internal/platform/metrics"
	"caseledger/internal/registry"
	id "caseledger/pkg/domain"
	dErrors "caseledger/pkg/domain-errors"
	"caseledger/pkg/requestcontext"
)

// Gateway wraps the access engine with denial auditing. A denied request
// produces the same FORBIDDEN error whether the registry is missing or merely
// off-limits, so probing for existence through error shapes tells nothing.
type Gateway struct {
	engine   *access.Engine
	recorder *audit.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New builds a Gateway. metrics may be nil in tests.
func New(engine *access.Engine, recorder *audit.Recorder, logger *slog.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{engine: engine, recorder: recorder, logger: logger, metrics: m}
}

// RequireAccessRegistry returns nil iff the authenticated user may touch the
// registry. Denials are audited best-effort as ACCESS_REQUESTED; the denial
// response must not depend on whether its own audit write succeeded.
func (g *Gateway) RequireAccessRegistry(ctx context.Context, registryID id.RegistryID) error {
	user := requestcontext.User(ctx)

	allowed, err := g.engine.CanAccessRegistry(ctx, user, registryID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "evaluate registry access")
	}
	if allowed {
		return nil
	}
	g.deny(ctx, user, &registryID, "registry access")
	return forbidden()
}

// RequireSearch returns nil iff the user may list registries.
func (g *Gateway) RequireSearch(ctx context.Context) error {
	user := requestcontext.User(ctx)
	if g.engine.CanSearch(user) {
		return nil
	}
	g.deny(ctx, user, nil, "registry search")
	return forbidden()
}

// RequireCreate returns nil iff the user may open new registries.
func (g *Gateway) RequireCreate(ctx context.Context) error {
	user := requestcontext.User(ctx)
	if g.engine.CanCreateRegistry(user) {
		return nil
	}
	g.deny(ctx, user, nil, "registry create")
	return forbidden()
}

// RequireGrantManagement returns nil iff the user may grant or revoke access.
func (g *Gateway) RequireGrantManagement(ctx context.Context) error {
	user := requestcontext.User(ctx)
	if g.engine.CanManageGrants(user) {
		return nil
	}
	g.deny(ctx, user, nil, "grant management")
	return forbidden()
}

// RequireAuditView returns nil iff the user may read the access ledger.
func (g *Gateway) RequireAuditView(ctx context.Context) error {
	user := requestcontext.User(ctx)
	if g.engine.CanViewAudit(user) {
		return nil
	}
	g.deny(ctx, user, nil, "audit view")
	return forbidden()
}

// FilterSummaries narrows a listing to what the user is authorized to see.
func (g *Gateway) FilterSummaries(ctx context.Context, summaries []registry.Summary) ([]registry.Summary, error) {
	user := requestcontext.User(ctx)

	all, ids, err := g.engine.AuthorizedRegistries(ctx, user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list authorized registries")
	}
	if all {
		return summaries, nil
	}

	allowed := make(map[id.RegistryID]bool, len(ids))
	for _, registryID := range ids {
		allowed[registryID] = true
	}
	filtered := make([]registry.Summary, 0, len(summaries))
	for _, summary := range summaries {
		if allowed[summary.ID] {
			filtered = append(filtered, summary)
		}
	}
	return filtered, nil
}

func (g *Gateway) deny(ctx context.Context, user id.AppUser, registryID *id.RegistryID, what string) {
	if g.metrics != nil {
		g.metrics.AuthzDenials.WithLabelValues(string(user.Role)).Inc()
	}
	g.logger.WarnContext(ctx, "access denied",
		"what", what,
		"role", user.Role,
		"request_id", requestcontext.RequestID(ctx),
	)

	entry := audit.Entry{
		RegistryID: registryID,
		Action:     audit.ActionAccessRequested,
		Metadata:   map[string]any{"granted": false, "resource": what},
	}
	if !user.ID.IsNil() {
		uid := user.ID
		entry.ActorUserID = &uid
	}
	g.recorder.RecordBestEffort(ctx, entry)
}

func forbidden() error {
	return dErrors.New(dErrors.CodeForbidden, "access denied")
}
