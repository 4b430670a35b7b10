package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

const orderColumns = `id, user_id, items, total, status, created_at, updated_at`

// OrderRepository implements the repositories.OrderRepository interface
type OrderRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB, logger *zap.Logger) repositories.OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{CartItems: []models.CartItem{}}
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Items,
		&o.Total,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Create creates a new order row
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.Items,
		order.Total,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return translate("failed to create order", err)
	}

	r.logger.Debug("order created",
		zap.String("id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.Int("items", order.Items),
		zap.String("total", order.Total.String()),
	)
	return nil
}

// GetByID retrieves an order row by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(GetExecutor(ctx, r.db, r.tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetByIDForUpdate retrieves an order row and locks it until the
// surrounding transaction ends
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	order, err := scanOrder(GetExecutor(ctx, r.db, r.tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

// List retrieves all order rows
func (r *OrderRepository) List(ctx context.Context) ([]*models.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// ListByUserID retrieves the orders owned by a user
func (r *OrderRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := GetExecutor(ctx, r.db, r.tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	return orders, nil
}

// Update writes owner and aggregates. Status is left to UpdateStatus.
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET user_id = $2,
		    items = $3,
		    total = $4,
		    updated_at = $5
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.Items,
		order.Total,
		order.UpdatedAt,
	)
	if err != nil {
		return translate("failed to update order", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err := expectAffected("update order", rowsAffected, err); err != nil {
		return err
	}

	r.logger.Debug("order updated",
		zap.String("id", order.ID.String()),
		zap.Int("items", order.Items),
		zap.String("total", order.Total.String()),
	)
	return nil
}

// UpdateStatus changes only the status column
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return translate("failed to update order status", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected("update order status", rowsAffected, err)
}

// Delete deletes an order row. Line items must be removed first.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return translate("failed to delete order", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err := expectAffected("delete order", rowsAffected, err); err != nil {
		return err
	}

	r.logger.Debug("order deleted", zap.String("id", id.String()))
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *OrderRepository) WithTx(tx repositories.Transaction) repositories.OrderRepository {
	return &OrderRepository{db: r.db, tx: asTx(tx), logger: r.logger}
}
