package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
)

// Storage-level errors. Lookups never return ErrNotFound: an absent row is
// reported as a nil entity with a nil error.
var (
	// ErrNotFound is returned by Update/Delete when the target row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("duplicate record")

	// ErrInUse is returned when a row cannot be removed because others reference it
	ErrInUse = errors.New("record is still referenced")
)

// TransactionManager manages storage transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a storage transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user; ErrDuplicate if the email is taken
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID, nil if absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email, nil if absent
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves all users
	List(ctx context.Context) ([]*models.User, error)

	// Update updates a user
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) UserRepository
}

// CategoryRepository handles category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx Transaction) CategoryRepository
}

// ProductRepository handles product data operations
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx Transaction) ProductRepository
}

// CartItemRepository handles line item data operations
type CartItemRepository interface {
	// Create creates a new cart item
	Create(ctx context.Context, item *models.CartItem) error

	// GetByID retrieves a cart item by ID, nil if absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error)

	// List retrieves all cart items
	List(ctx context.Context) ([]*models.CartItem, error)

	// ListByOrderID retrieves the line items attached to an order, oldest first
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.CartItem, error)

	// Update updates a cart item
	Update(ctx context.Context, item *models.CartItem) error

	// Delete deletes a cart item
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByOrderID deletes every line item attached to an order
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) CartItemRepository
}

// OrderRepository handles order data operations. Order rows carry the
// aggregates only; line items live in CartItemRepository.
type OrderRepository interface {
	// Create creates a new order row
	Create(ctx context.Context, order *models.Order) error

	// GetByID retrieves an order row by ID, nil if absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// GetByIDForUpdate retrieves an order row, nil if absent, and holds a
	// write lock on it until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// List retrieves all order rows
	List(ctx context.Context) ([]*models.Order, error)

	// ListByUserID retrieves the orders owned by a user
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)

	// Update writes owner and aggregates of an order; status is untouched
	Update(ctx context.Context, order *models.Order) error

	// UpdateStatus changes only the status column
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error

	// Delete deletes an order row
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) OrderRepository
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users      UserRepository
	Categories CategoryRepository
	Products   ProductRepository
	CartItems  CartItemRepository
	Orders     OrderRepository
}
