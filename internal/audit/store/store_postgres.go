package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"caseledger/internal/audit"
	id "caseledger/pkg/domain"
	txcontext "caseledger/pkg/platform/tx"
)

// PostgresStore persists access-log entries. Each Append also writes an
// outbox row in the same statement batch so downstream publishing shares the
// caller's transaction; when a mutation commits, its outbox row commits too.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds a PostgreSQL-backed access ledger.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry audit.Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	var registryID, actorUserID *uuid.UUID
	if entry.RegistryID != nil {
		rid := uuid.UUID(*entry.RegistryID)
		registryID = &rid
	}
	if entry.ActorUserID != nil {
		aid := uuid.UUID(*entry.ActorUserID)
		actorUserID = &aid
	}

	exec := s.execer(ctx)
	_, err = exec.ExecContext(ctx, `
		INSERT INTO access_log (id, registry_id, actor_user_id, action, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(entry.ID), registryID, actorUserID, string(entry.Action), metadata, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert access log entry: %w", err)
	}

	payload, err := json.Marshal(outboxPayload{
		EntryID:     entry.ID.String(),
		RegistryID:  uuidStringOrEmpty(registryID),
		ActorUserID: uuidStringOrEmpty(actorUserID),
		Action:      string(entry.Action),
		Metadata:    entry.Metadata,
		Timestamp:   entry.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, entry_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), uuid.UUID(entry.ID), payload, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit outbox entry: %w", err)
	}
	return nil
}

// outboxPayload is the JSON structure published to the broker.
type outboxPayload struct {
	EntryID     string         `json:"entryId"`
	RegistryID  string         `json:"registryId,omitempty"`
	ActorUserID string         `json:"actorUserId,omitempty"`
	Action      string         `json:"action"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

func uuidStringOrEmpty(u *uuid.UUID) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func (s *PostgresStore) List(ctx context.Context, filter audit.Filter, page, pageSize int) (audit.Page, error) {
	where, args := buildFilter(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM access_log" + where
	if err := s.execer(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return audit.Page{}, fmt.Errorf("count access log entries: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, registry_id, actor_user_id, action, metadata, timestamp
		FROM access_log%s
		ORDER BY timestamp DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return audit.Page{}, fmt.Errorf("list access log entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return audit.Page{}, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return audit.Page{}, fmt.Errorf("iterate access log entries: %w", err)
	}
	return audit.Page{Rows: entries, TotalCount: total}, nil
}

func buildFilter(filter audit.Filter) (string, []any) {
	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Action != "" {
		clauses = append(clauses, "action = "+arg(string(filter.Action)))
	}
	if filter.RegistryID != nil {
		clauses = append(clauses, "registry_id = "+arg(uuid.UUID(*filter.RegistryID)))
	}
	if filter.ActorUserID != nil {
		clauses = append(clauses, "actor_user_id = "+arg(uuid.UUID(*filter.ActorUserID)))
	}
	if filter.Start != nil {
		clauses = append(clauses, "timestamp >= "+arg(*filter.Start))
	}
	if filter.End != nil {
		clauses = append(clauses, "timestamp < "+arg(*filter.End))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanEntry(rows *sql.Rows) (audit.Entry, error) {
	var (
		entryID     uuid.UUID
		registryID  *uuid.UUID
		actorUserID *uuid.UUID
		action      string
		metadata    []byte
		timestamp   time.Time
	)
	if err := rows.Scan(&entryID, &registryID, &actorUserID, &action, &metadata, &timestamp); err != nil {
		return audit.Entry{}, fmt.Errorf("scan access log entry: %w", err)
	}

	entry := audit.Entry{
		ID:        id.EntryID(entryID),
		Action:    audit.Action(action),
		Timestamp: timestamp,
	}
	if registryID != nil {
		rid := id.RegistryID(*registryID)
		entry.RegistryID = &rid
	}
	if actorUserID != nil {
		aid := id.UserID(*actorUserID)
		entry.ActorUserID = &aid
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return audit.Entry{}, fmt.Errorf("unmarshal audit metadata: %w", err)
		}
	}
	return entry, nil
}

func (s *PostgresStore) DistinctActions(ctx context.Context) ([]audit.Action, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT DISTINCT action FROM access_log ORDER BY action
	`)
	if err != nil {
		return nil, fmt.Errorf("list distinct actions: %w", err)
	}
	defer rows.Close()

	var actions []audit.Action
	for rows.Next() {
		var action string
		if err := rows.Scan(&action); err != nil {
			return nil, fmt.Errorf("scan distinct action: %w", err)
		}
		actions = append(actions, audit.Action(action))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct actions: %w", err)
	}
	return actions, nil
}
