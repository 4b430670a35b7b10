package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

const cartItemColumns = `id, product_id, order_id, price, quantity, created_at, updated_at`

// CartItemRepository implements the repositories.CartItemRepository interface
type CartItemRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewCartItemRepository creates a new cart item repository
func NewCartItemRepository(db *DB, logger *zap.Logger) repositories.CartItemRepository {
	return &CartItemRepository{db: db, logger: logger}
}

func scanCartItem(row rowScanner) (*models.CartItem, error) {
	item := &models.CartItem{}
	var orderID uuid.NullUUID
	err := row.Scan(
		&item.ID,
		&item.ProductID,
		&orderID,
		&item.Price,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID.Valid {
		id := orderID.UUID
		item.OrderID = &id
	}
	return item, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// Create creates a new cart item
func (r *CartItemRepository) Create(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (` + cartItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query,
		item.ID,
		item.ProductID,
		nullUUID(item.OrderID),
		item.Price,
		item.Quantity,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return translate("failed to create cart item", err)
	}

	r.logger.Debug("cart item created", zap.String("id", item.ID.String()))
	return nil
}

// GetByID retrieves a cart item by ID
func (r *CartItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE id = $1`

	item, err := scanCartItem(GetExecutor(ctx, r.db, r.tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return item, nil
}

// List retrieves all cart items
func (r *CartItemRepository) List(ctx context.Context) ([]*models.CartItem, error) {
	return r.query(ctx, `SELECT `+cartItemColumns+` FROM cart_items ORDER BY created_at`)
}

// ListByOrderID retrieves the line items of an order
func (r *CartItemRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.CartItem, error) {
	return r.query(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE order_id = $1 ORDER BY created_at, id`, orderID)
}

func (r *CartItemRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.CartItem, error) {
	rows, err := GetExecutor(ctx, r.db, r.tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []*models.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart item rows: %w", err)
	}

	return items, nil
}

// Update updates a cart item
func (r *CartItemRepository) Update(ctx context.Context, item *models.CartItem) error {
	query := `
		UPDATE cart_items
		SET product_id = $2,
		    order_id = $3,
		    price = $4,
		    quantity = $5,
		    updated_at = $6
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query,
		item.ID,
		item.ProductID,
		nullUUID(item.OrderID),
		item.Price,
		item.Quantity,
		item.UpdatedAt,
	)
	if err != nil {
		return translate("failed to update cart item", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected("update cart item", rowsAffected, err)
}

// Delete deletes a cart item
func (r *CartItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return translate("failed to delete cart item", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected("delete cart item", rowsAffected, err)
}

// DeleteByOrderID deletes the line items of an order and reports how many were removed
func (r *CartItemRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error) {
	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, `DELETE FROM cart_items WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, translate("failed to delete order cart items", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Debug("order cart items deleted", zap.String("order_id", orderID.String()), zap.Int64("count", n))
	return n, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *CartItemRepository) WithTx(tx repositories.Transaction) repositories.CartItemRepository {
	return &CartItemRepository{db: r.db, tx: asTx(tx), logger: r.logger}
}
