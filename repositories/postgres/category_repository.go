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

// CategoryRepository implements the repositories.CategoryRepository interface
type CategoryRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB, logger *zap.Logger) repositories.CategoryRepository {
	return &CategoryRepository{db: db, logger: logger}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return translate("failed to create category", err)
	}

	r.logger.Debug("category created", zap.String("id", category.ID.String()), zap.String("name", category.Name))
	return nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := `SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`

	category := &models.Category{}
	err := GetExecutor(ctx, r.db, r.tx).QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// List retrieves all categories
func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`

	rows, err := GetExecutor(ctx, r.db, r.tx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

// Update updates a category
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	query := `UPDATE categories SET name = $2, updated_at = $3 WHERE id = $1`

	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.UpdatedAt,
	)
	if err != nil {
		return translate("failed to update category", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected("update category", rowsAffected, err)
}

// Delete deletes a category. Fails with ErrInUse while products reference it.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return translate("failed to delete category", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err := expectAffected("delete category", rowsAffected, err); err != nil {
		return err
	}

	r.logger.Debug("category deleted", zap.String("id", id.String()))
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *CategoryRepository) WithTx(tx repositories.Transaction) repositories.CategoryRepository {
	return &CategoryRepository{db: r.db, tx: asTx(tx), logger: r.logger}
}
