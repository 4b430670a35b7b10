package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus tracks fulfilment of an order independently of its line items
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusFulfilled  OrderStatus = "Fulfilled"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// ParseOrderStatus converts a raw string into an OrderStatus
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusFulfilled, OrderStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CartItem is a line item. Price is captured when the item is submitted
// and is not re-read from the product catalog.
type CartItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	OrderID   *uuid.UUID      `json:"orderId,omitempty" db:"order_id"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// NewCartItem creates a new CartItem instance
func NewCartItem(productID uuid.UUID, price decimal.Decimal, quantity int, orderID *uuid.UUID) *CartItem {
	now := time.Now().UTC()
	return &CartItem{
		ID:        uuid.New(),
		ProductID: productID,
		OrderID:   orderID,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Subtotal returns price × quantity
func (c CartItem) Subtotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// BelongsTo reports whether the item is attached to the given order
func (c CartItem) BelongsTo(orderID uuid.UUID) bool {
	return c.OrderID != nil && *c.OrderID == orderID
}

// Order is a purchase owned by a user. Items and Total are always derived
// from CartItems and are never edited directly.
type Order struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"userId" db:"user_id"`
	Items     int             `json:"items" db:"items"`
	Total     decimal.Decimal `json:"total" db:"total"`
	Status    OrderStatus     `json:"status" db:"status"`
	CartItems []CartItem      `json:"cartItems"`
	User      *UserResponse   `json:"user,omitempty"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a pending order for the given user
func NewOrder(userID uuid.UUID) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.New(),
		UserID:    userID,
		Total:     decimal.Zero,
		Status:    OrderStatusPending,
		CartItems: []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy reports whether userID owns the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}
