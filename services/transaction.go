package services

import (
	"context"
	"fmt"

	"github.com/upb/storefront-api/repositories"
)

// TxFunc is a unit of work executed inside a transaction
type TxFunc[T any] func(ctx context.Context, tx repositories.Transaction) (T, error)

// WithTransaction executes fn within a transaction.
// Commits on success, rolls back on error or panic.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	_, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context, tx repositories.Transaction) (struct{}, error) {
		return struct{}{}, fn(ctx, tx)
	})
	return err
}

// WithTransactionResult executes fn within a transaction and returns its result.
// Nothing fn wrote is visible to other callers unless it returns a nil error.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn TxFunc[T]) (T, error) {
	var zero T

	tx, err := txMgr.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	result, err := fn(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return zero, fmt.Errorf("transaction error: %w, rollback error: %w", err, rbErr)
		}
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}
