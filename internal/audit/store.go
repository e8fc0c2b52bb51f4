package audit

import "context"

// Store is the append-only persistence contract for the access ledger.
// Entries are never updated or deleted; List filters without destroying.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter, page, pageSize int) (Page, error)
	DistinctActions(ctx context.Context) ([]Action, error)
}
