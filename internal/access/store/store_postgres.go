package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "caseledger/pkg/domain"
	txcontext "caseledger/pkg/platform/tx"
)

// PostgresGrantStore persists attorney-to-registry grants. A revoke flips the
// active flag rather than deleting the row, so grant history survives.
type PostgresGrantStore struct {
	db *sql.DB
}

// NewPostgresGrantStore builds a PostgreSQL-backed grant store.
func NewPostgresGrantStore(db *sql.DB) *PostgresGrantStore {
	return &PostgresGrantStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresGrantStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresGrantStore) Grant(ctx context.Context, attorneyID id.UserID, registryID id.RegistryID) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO authorization_grants (attorney_id, registry_id, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (attorney_id, registry_id) DO UPDATE SET active = TRUE
	`, uuid.UUID(attorneyID), uuid.UUID(registryID))
	if err != nil {
		return fmt.Errorf("insert authorization grant: %w", err)
	}
	return nil
}

func (s *PostgresGrantStore) Revoke(ctx context.Context, attorneyID id.UserID, registryID id.RegistryID) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE authorization_grants SET active = FALSE
		WHERE attorney_id = $1 AND registry_id = $2
	`, uuid.UUID(attorneyID), uuid.UUID(registryID))
	if err != nil {
		return fmt.Errorf("revoke authorization grant: %w", err)
	}
	return nil
}

func (s *PostgresGrantStore) IsAuthorized(ctx context.Context, attorneyID id.UserID, registryID id.RegistryID) (bool, error) {
	var authorized bool
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM authorization_grants
			WHERE attorney_id = $1 AND registry_id = $2 AND active
		)
	`, uuid.UUID(attorneyID), uuid.UUID(registryID)).Scan(&authorized)
	if err != nil {
		return false, fmt.Errorf("check authorization grant: %w", err)
	}
	return authorized, nil
}

func (s *PostgresGrantStore) ListAuthorizedRegistries(ctx context.Context, attorneyID id.UserID) ([]id.RegistryID, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT registry_id FROM authorization_grants
		WHERE attorney_id = $1 AND active
		ORDER BY registry_id
	`, uuid.UUID(attorneyID))
	if err != nil {
		return nil, fmt.Errorf("list authorization grants: %w", err)
	}
	defer rows.Close()

	var ids []id.RegistryID
	for rows.Next() {
		var registryID uuid.UUID
		if err := rows.Scan(&registryID); err != nil {
			return nil, fmt.Errorf("scan authorization grant: %w", err)
		}
		ids = append(ids, id.RegistryID(registryID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authorization grants: %w", err)
	}
	return ids, nil
}
