package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new Category instance
func NewCategory(name string) *Category {
	now := time.Now().UTC()
	return &Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Product is an item in the catalog
type Product struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Price        decimal.Decimal  `json:"price" db:"price"`
	Rating       *decimal.Decimal `json:"rating,omitempty" db:"rating"`
	Brand        string           `json:"brand" db:"brand"`
	Quantity     int              `json:"quantity" db:"quantity"`
	Description  *string          `json:"description,omitempty" db:"description"`
	ProductImage *string          `json:"productImage,omitempty" db:"product_image"`
	CategoryID   uuid.UUID        `json:"categoryId" db:"category_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
