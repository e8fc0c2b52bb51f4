package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"caseledger/internal/platform/metrics"
)

// Row is one unpublished outbox record.
type Row struct {
	ID      uuid.UUID
	EntryID uuid.UUID
	Payload []byte
}

// Source supplies unpublished rows and records successful publishes.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Row, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Worker drains the audit outbox into the publisher. It runs beside the HTTP
// server and never sits on a request path: a broker outage delays streaming
// but cannot fail or slow a mutation.
type Worker struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
}

// NewWorker builds an outbox worker. metrics may be nil in tests.
func NewWorker(source Source, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		source:    source,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		interval:  2 * time.Second,
		batchSize: 100,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				if w.metrics != nil {
					w.metrics.OutboxPublishError.Inc()
				}
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) error {
	rows, err := w.source.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("fetch unpublished outbox rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if err := w.publisher.Publish(ctx, row.EntryID.String(), row.Payload); err != nil {
			// Stop the batch; unpublished rows are retried next tick.
			if markErr := w.markPublished(ctx, published); markErr != nil {
				return markErr
			}
			return fmt.Errorf("publish outbox row %s: %w", row.ID, err)
		}
		published = append(published, row.ID)
		if w.metrics != nil {
			w.metrics.OutboxPublished.Inc()
		}
	}
	return w.markPublished(ctx, published)
}

func (w *Worker) markPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.source.MarkPublished(ctx, ids, time.Now()); err != nil {
		return fmt.Errorf("mark outbox rows published: %w", err)
	}
	return nil
}

// PostgresSource reads the audit_outbox table.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource builds a Source over the audit_outbox table.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) FetchUnpublished(ctx context.Context, limit int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit outbox: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.EntryID, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan audit outbox row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PostgresSource) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2)
	`, at, ids)
	return err
}
