// Package cartitem implements direct line item management. Any change to an
// item attached to an order recomputes that order's aggregates in the same
// transaction.
package cartitem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/services/order"
	"go.uber.org/zap"
)

// CreateCartItemInput is the payload for adding a line item
type CreateCartItemInput struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	OrderID   *uuid.UUID      `json:"orderId,omitempty"`
}

// UpdateCartItemInput is the payload for editing a line item. Nil fields are left unchanged.
type UpdateCartItemInput struct {
	ProductID *uuid.UUID       `json:"productId,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gt=0"`
	Quantity  *int             `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	OrderID   *uuid.UUID       `json:"orderId,omitempty"`
}

// Service handles cart items
type Service struct {
	items    repositories.CartItemRepository
	products repositories.ProductRepository
	orders   repositories.OrderRepository
	txMgr    repositories.TransactionManager
	logger   *zap.Logger
}

// NewService creates a new cart item service
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, logger *zap.Logger) *Service {
	return &Service{
		items:    repos.CartItems,
		products: repos.Products,
		orders:   repos.Orders,
		txMgr:    txMgr,
		logger:   logger,
	}
}

type bound struct {
	items    repositories.CartItemRepository
	products repositories.ProductRepository
	orders   repositories.OrderRepository
}

func (s *Service) bind(tx repositories.Transaction) bound {
	return bound{
		items:    s.items.WithTx(tx),
		products: s.products.WithTx(tx),
		orders:   s.orders.WithTx(tx),
	}
}

// Create adds a line item, attaching it to an order when OrderID is set.
// Only the order's owner or an Admin may attach items to it.
func (s *Service) Create(ctx context.Context, in CreateCartItemInput, principal *models.Principal) (*models.CartItem, error) {
	if !in.Price.IsPositive() || in.Quantity <= 0 {
		return nil, services.InvalidInput("price and quantity must be positive")
	}

	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.CartItem, error) {
		b := s.bind(tx)
		if err := requireProduct(ctx, b.products, in.ProductID); err != nil {
			return nil, err
		}
		if in.OrderID != nil {
			if err := requireOrder(ctx, b.orders, *in.OrderID, principal); err != nil {
				return nil, err
			}
		}

		item := models.NewCartItem(in.ProductID, in.Price, in.Quantity, in.OrderID)
		if err := b.items.Create(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
		if err := recalculate(ctx, b, item.OrderID); err != nil {
			return nil, err
		}
		return item, nil
	})
}

// List returns every line item
func (s *Service) List(ctx context.Context) ([]*models.CartItem, error) {
	all, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	if all == nil {
		all = []*models.CartItem{}
	}
	return all, nil
}

// Get returns a line item by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	return find(ctx, s.items, id)
}

// Update edits a line item. When the item moves between orders both orders
// are recomputed; the target order must belong to the principal unless it
// is an Admin.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateCartItemInput, principal *models.Principal) (*models.CartItem, error) {
	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.CartItem, error) {
		b := s.bind(tx)
		item, err := find(ctx, b.items, id)
		if err != nil {
			return nil, err
		}
		previous := item.OrderID

		if in.ProductID != nil {
			if err := requireProduct(ctx, b.products, *in.ProductID); err != nil {
				return nil, err
			}
			item.ProductID = *in.ProductID
		}
		if in.Price != nil {
			if !in.Price.IsPositive() {
				return nil, services.InvalidInput("price must be positive")
			}
			item.Price = *in.Price
		}
		if in.Quantity != nil {
			if *in.Quantity <= 0 {
				return nil, services.InvalidInput("quantity must be positive")
			}
			item.Quantity = *in.Quantity
		}
		if in.OrderID != nil {
			if err := requireOrder(ctx, b.orders, *in.OrderID, principal); err != nil {
				return nil, err
			}
			item.OrderID = in.OrderID
		}
		item.UpdatedAt = time.Now().UTC()

		if err := b.items.Update(ctx, item); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrCartItemNotFound
			}
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}

		if err := recalculate(ctx, b, item.OrderID); err != nil {
			return nil, err
		}
		if previous != nil && !item.BelongsTo(*previous) {
			if err := recalculate(ctx, b, previous); err != nil {
				return nil, err
			}
		}
		return item, nil
	})
}

// Remove deletes a line item and recomputes its order
func (s *Service) Remove(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	removed, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.CartItem, error) {
		b := s.bind(tx)
		item, err := find(ctx, b.items, id)
		if err != nil {
			return nil, err
		}
		if err := b.items.Delete(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrCartItemNotFound
			}
			return nil, fmt.Errorf("failed to delete cart item: %w", err)
		}
		if err := recalculate(ctx, b, item.OrderID); err != nil {
			return nil, err
		}
		return item, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart item removed", zap.String("cart_item_id", id.String()))
	return removed, nil
}

// OwnerOf resolves the user owning a line item through its order. Items not
// attached to an order have no owner and report uuid.Nil.
func (s *Service) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return uuid.Nil, false, nil
	}
	if item.OrderID == nil {
		return uuid.Nil, true, nil
	}

	o, err := s.orders.GetByID(ctx, *item.OrderID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil {
		return uuid.Nil, true, nil
	}
	return o.UserID, true, nil
}

func recalculate(ctx context.Context, b bound, orderID *uuid.UUID) error {
	if orderID == nil {
		return nil
	}
	return order.Recalculate(ctx, b.orders, b.items, *orderID)
}

func find(ctx context.Context, items repositories.CartItemRepository, id uuid.UUID) (*models.CartItem, error) {
	item, err := items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return nil, services.ErrCartItemNotFound
	}
	return item, nil
}

func requireProduct(ctx context.Context, products repositories.ProductRepository, id uuid.UUID) error {
	p, err := products.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return services.ErrProductNotFound.WithDetail("productId", id.String())
	}
	return nil
}

func requireOrder(ctx context.Context, orders repositories.OrderRepository, id uuid.UUID, principal *models.Principal) error {
	o, err := orders.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil {
		return services.ErrOrderNotFound.WithDetail("orderId", id.String())
	}
	if principal == nil || (!principal.IsAdmin() && principal.ID != o.UserID) {
		return services.ErrNotOwner.WithDetail("orderId", id.String())
	}
	return nil
}
