package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"caseledger/internal/registry"
	id "caseledger/pkg/domain"
	"caseledger/pkg/platform/sentinel"
	txcontext "caseledger/pkg/platform/tx"
)

// PostgresStore persists registry records and versions. Sequence numbers are
// computed as MAX(sequence)+1 inside the caller's transaction; the unique
// (registry_id, sequence) constraint turns a lost race into an error instead
// of a duplicate.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds a PostgreSQL-backed registry store.
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

func (s *PostgresStore) InsertRecord(ctx context.Context, record registry.Record) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO registry_records (id, subject_name, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.UUID(record.ID), record.SubjectName, string(record.Status), record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert registry record: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendVersion(ctx context.Context, version registry.Version) (registry.Version, error) {
	exec := s.execer(ctx)

	exists, err := s.Exists(ctx, version.RegistryID)
	if err != nil {
		return registry.Version{}, err
	}
	if !exists {
		return registry.Version{}, sentinel.ErrNotFound
	}

	payload, err := json.Marshal(version.Payload)
	if err != nil {
		return registry.Version{}, fmt.Errorf("marshal version payload: %w", err)
	}

	row := exec.QueryRowContext(ctx, `
		INSERT INTO registry_versions (id, registry_id, payload, submitted_by, content_hash, sequence, created_at)
		SELECT $1, $2, $3, $4, $5, COALESCE(MAX(sequence), 0) + 1, $6
		FROM registry_versions WHERE registry_id = $2
		RETURNING sequence
	`, uuid.UUID(version.ID), uuid.UUID(version.RegistryID), payload,
		string(version.SubmittedBy), version.ContentHash, version.CreatedAt)
	if err := row.Scan(&version.Sequence); err != nil {
		return registry.Version{}, fmt.Errorf("insert registry version: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, registryID id.RegistryID) (registry.Record, error) {
	var (
		record    registry.Record
		recordID  uuid.UUID
		status    string
		createdAt time.Time
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, subject_name, status, created_at
		FROM registry_records WHERE id = $1
	`, uuid.UUID(registryID)).Scan(&recordID, &record.SubjectName, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registry.Record{}, fmt.Errorf("get registry record: %w", err)
	}
	record.ID = id.RegistryID(recordID)
	record.Status = id.RegistryStatus(status)
	record.CreatedAt = createdAt
	return record, nil
}

func (s *PostgresStore) ListVersions(ctx context.Context, registryID id.RegistryID) ([]registry.Version, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, registry_id, payload, submitted_by, content_hash, sequence, created_at
		FROM registry_versions
		WHERE registry_id = $1
		ORDER BY sequence DESC
	`, uuid.UUID(registryID))
	if err != nil {
		return nil, fmt.Errorf("list registry versions: %w", err)
	}
	defer rows.Close()

	var versions []registry.Version
	for rows.Next() {
		var (
			version   registry.Version
			versionID uuid.UUID
			regID     uuid.UUID
			payload   []byte
			submitted string
		)
		if err := rows.Scan(&versionID, &regID, &payload, &submitted,
			&version.ContentHash, &version.Sequence, &version.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registry version: %w", err)
		}
		version.ID = id.VersionID(versionID)
		version.RegistryID = id.RegistryID(regID)
		version.SubmittedBy = id.SubmittedBy(submitted)
		if err := json.Unmarshal(payload, &version.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal version payload: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry versions: %w", err)
	}
	return versions, nil
}

func (s *PostgresStore) ListSummaries(ctx context.Context) ([]registry.Summary, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT r.id, r.subject_name, r.status,
		       COUNT(v.id),
		       GREATEST(r.created_at, COALESCE(MAX(v.created_at), r.created_at))
		FROM registry_records r
		LEFT JOIN registry_versions v ON v.registry_id = r.id
		GROUP BY r.id, r.subject_name, r.status, r.created_at
		ORDER BY 5 DESC, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list registry summaries: %w", err)
	}
	defer rows.Close()

	var summaries []registry.Summary
	for rows.Next() {
		var (
			summary  registry.Summary
			recordID uuid.UUID
			status   string
		)
		if err := rows.Scan(&recordID, &summary.SubjectName, &status,
			&summary.VersionCount, &summary.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan registry summary: %w", err)
		}
		summary.ID = id.RegistryID(recordID)
		summary.Status = id.RegistryStatus(status)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry summaries: %w", err)
	}
	return summaries, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, registryID id.RegistryID, status id.RegistryStatus) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE registry_records SET status = $1 WHERE id = $2
	`, string(status), uuid.UUID(registryID))
	if err != nil {
		return fmt.Errorf("update registry status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registry status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, registryID id.RegistryID) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM registry_records WHERE id = $1)
	`, uuid.UUID(registryID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registry existence: %w", err)
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
