package audit

import (
	"context"
	"log/slog"

	"caseledger/internal/platform/metrics"
	id "caseledger/pkg/domain"
	dErrors "caseledger/pkg/domain-errors"
	"caseledger/pkg/requestcontext"
)

// Recorder is the write and query surface of the access ledger. It enforces
// the two-tier durability policy: mutation entries must land (callers run
// Record inside the mutating transaction and abort on failure), while
// view/search entries are best-effort.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRecorder builds a Recorder. metrics may be nil in tests.
func NewRecorder(store Store, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: m}
}

// Record appends exactly one entry and returns it. A store failure is
// returned to the caller; for mutations the caller must treat it as fatal so
// the "every mutation has a log entry" invariant cannot be silently broken.
func (r *Recorder) Record(ctx context.Context, entry Entry) (*Entry, error) {
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if _, ok := ParseAction(string(entry.Action)); !ok {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unrecognized audit action %q", entry.Action)
	}

	if err := r.store.Append(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "append audit entry")
	}
	if r.metrics != nil {
		r.metrics.AuditEntriesTotal.WithLabelValues(string(entry.Action)).Inc()
	}
	return &entry, nil
}

// RecordBestEffort appends a view/search entry, absorbing store failures.
// A lost view entry is reported to operators, not to the caller.
func (r *Recorder) RecordBestEffort(ctx context.Context, entry Entry) {
	if _, err := r.Record(ctx, entry); err != nil {
		if r.metrics != nil {
			r.metrics.AuditEntriesLost.Inc()
		}
		r.logger.ErrorContext(ctx, "dropped best-effort audit entry",
			"action", entry.Action,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// List returns one page of entries matching the filter, newest-first, with
// the total match count for pagination controls.
func (r *Recorder) List(ctx context.Context, filter Filter, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	result, err := r.store.List(ctx, filter, page, pageSize)
	if err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "list audit entries")
	}
	return result, nil
}

// DistinctActions enumerates the action values currently present in the
// ledger, for populating filter controls.
func (r *Recorder) DistinctActions(ctx context.Context) ([]Action, error) {
	actions, err := r.store.DistinctActions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list distinct audit actions")
	}
	return actions, nil
}

// EntriesForRegistry returns every entry touching one registry, newest-first.
// Used to assemble the registry aggregate, so it bypasses the page-size cap.
func (r *Recorder) EntriesForRegistry(ctx context.Context, registryID id.RegistryID) ([]Entry, error) {
	page, err := r.store.List(ctx, Filter{RegistryID: &registryID}, 1, allEntriesPageSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list audit entries for registry")
	}
	return page.Rows, nil
}

// allEntriesPageSize bounds the per-registry audit fetch used by aggregates.
const allEntriesPageSize = 10000
