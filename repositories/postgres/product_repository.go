package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

const productColumns = `id, name, price, rating, brand, quantity, description, product_image, category_id, created_at, updated_at`

// ProductRepository implements the repositories.ProductRepository interface
type ProductRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *DB, logger *zap.Logger) repositories.ProductRepository {
	return &ProductRepository{db: db, logger: logger}
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var (
		rating      decimal.NullDecimal
		description sql.NullString
		image       sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&rating,
		&p.Brand,
		&p.Quantity,
		&description,
		&image,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		p.Rating = &rating.Decimal
	}
	if description.Valid {
		p.Description = &description.String
	}
	if image.Valid {
		p.ProductImage = &image.String
	}
	return p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Price,
		nullDecimal(p.Rating),
		p.Brand,
		p.Quantity,
		nullString(p.Description),
		nullString(p.ProductImage),
		p.CategoryID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return translate("failed to create product", err)
	}

	r.logger.Debug("product created", zap.String("id", p.ID.String()), zap.String("name", p.Name))
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(GetExecutor(ctx, r.db, r.tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// List retrieves all products
func (r *ProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	rows, err := GetExecutor(ctx, r.db, r.tx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}

	return products, nil
}

// Update updates a product
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2,
		    price = $3,
		    rating = $4,
		    brand = $5,
		    quantity = $6,
		    description = $7,
		    product_image = $8,
		    category_id = $9,
		    updated_at = $10
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Price,
		nullDecimal(p.Rating),
		p.Brand,
		p.Quantity,
		nullString(p.Description),
		nullString(p.ProductImage),
		p.CategoryID,
		p.UpdatedAt,
	)
	if err != nil {
		return translate("failed to update product", err)
	}

	rowsAffected, err := result.RowsAffected()
	return expectAffected("update product", rowsAffected, err)
}

// Delete deletes a product. Fails with ErrInUse while cart items reference it.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db, r.tx).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return translate("failed to delete product", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err := expectAffected("delete product", rowsAffected, err); err != nil {
		return err
	}

	r.logger.Debug("product deleted", zap.String("id", id.String()))
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *ProductRepository) WithTx(tx repositories.Transaction) repositories.ProductRepository {
	return &ProductRepository{db: r.db, tx: asTx(tx), logger: r.logger}
}
