package service

import (
	"context"
	"time"

	dErrors "caseledger/pkg/domain-errors"
)

// TxRunner executes fn atomically. The PostgreSQL runner injects a real
// transaction into the context so every store call inside fn shares it; the
// memory runner is a pass-through whose stores serialize under their own
// locks.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// MemoryTxRunner backs tests and local runs without a database.
type MemoryTxRunner struct {
	timeout time.Duration
}

// NewMemoryTxRunner builds a pass-through transaction runner.
func NewMemoryTxRunner() *MemoryTxRunner {
	return &MemoryTxRunner{}
}

func (t *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}
