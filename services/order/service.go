// Package order creates, updates and removes orders together with their line
// items. Aggregates are recomputed from the line items on every mutation.
package order

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
	"go.uber.org/zap"
)

// LineItemInput is a submitted line item. ID is set only when updating an
// item that already belongs to the order.
type LineItemInput struct {
	ID        *uuid.UUID      `json:"id,omitempty"`
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput is the payload for creating an order
type CreateOrderInput struct {
	UserID    uuid.UUID       `json:"userId" validate:"required"`
	CartItems []LineItemInput `json:"cartItems" validate:"required,min=1,dive"`
}

// UpdateOrderInput is the payload for updating an order. CartItems is the
// full replacement set.
type UpdateOrderInput struct {
	UserID    uuid.UUID       `json:"userId" validate:"required"`
	CartItems []LineItemInput `json:"cartItems" validate:"required,min=1,dive"`
}

// Service orchestrates order persistence
type Service struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
	items    repositories.CartItemRepository
	orders   repositories.OrderRepository
	txMgr    repositories.TransactionManager
	logger   *zap.Logger
}

// NewService creates a new order service
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, logger *zap.Logger) *Service {
	return &Service{
		users:    repos.Users,
		products: repos.Products,
		items:    repos.CartItems,
		orders:   repos.Orders,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// txRepos is the set of repositories bound to one transaction
type txRepos struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
	items    repositories.CartItemRepository
	orders   repositories.OrderRepository
}

func (s *Service) bind(tx repositories.Transaction) txRepos {
	return txRepos{
		users:    s.users.WithTx(tx),
		products: s.products.WithTx(tx),
		items:    s.items.WithTx(tx),
		orders:   s.orders.WithTx(tx),
	}
}

func (s *Service) unbound() txRepos {
	return txRepos{users: s.users, products: s.products, items: s.items, orders: s.orders}
}

// Create persists a new order and its line items in one transaction
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateLineItems(in.CartItems); err != nil {
		return nil, err
	}
	for _, li := range in.CartItems {
		if li.ID != nil {
			return nil, services.InvalidInput("cart item ids cannot be set when creating an order")
		}
	}

	created, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Order, error) {
		r := s.bind(tx)
		if err := requireUser(ctx, r.users, in.UserID); err != nil {
			return nil, err
		}

		order := models.NewOrder(in.UserID)
		lines := make([]models.CartItem, 0, len(in.CartItems))
		for _, li := range in.CartItems {
			if err := requireProduct(ctx, r.products, li.ProductID); err != nil {
				return nil, err
			}
			lines = append(lines, *models.NewCartItem(li.ProductID, li.Price, li.Quantity, &order.ID))
		}

		totals := Aggregate(lines)
		if err := totals.Validate(); err != nil {
			return nil, err
		}
		totals.Apply(order)

		if err := r.orders.Create(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		for i := range lines {
			if err := r.items.Create(ctx, &lines[i]); err != nil {
				return nil, fmt.Errorf("failed to create cart item: %w", err)
			}
		}
		order.CartItems = lines
		return order, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", created.ID.String()),
		zap.String("user_id", created.UserID.String()),
		zap.Int("items", created.Items),
		zap.String("total", created.Total.String()))

	return created, nil
}

// Update replaces the order's line items with in.CartItems. Items carrying
// an id of this order are updated, items without id are created and order
// items missing from the set are deleted. Aggregates are recomputed from
// the resulting set.
func (s *Service) Update(ctx context.Context, orderID uuid.UUID, in UpdateOrderInput) (*models.Order, error) {
	if err := validateLineItems(in.CartItems); err != nil {
		return nil, err
	}

	updated, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Order, error) {
		r := s.bind(tx)
		if err := requireUser(ctx, r.users, in.UserID); err != nil {
			return nil, err
		}

		order, err := r.orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock order: %w", err)
		}
		if order == nil {
			return nil, services.ErrOrderNotFound
		}

		current, err := r.items.ListByOrderID(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to list cart items: %w", err)
		}
		existing := make(map[uuid.UUID]*models.CartItem, len(current))
		for _, item := range current {
			existing[item.ID] = item
		}

		now := time.Now().UTC()
		kept := make(map[uuid.UUID]bool, len(in.CartItems))
		lines := make([]models.CartItem, 0, len(in.CartItems))

		for _, li := range in.CartItems {
			if err := requireProduct(ctx, r.products, li.ProductID); err != nil {
				return nil, err
			}

			if li.ID == nil {
				item := models.NewCartItem(li.ProductID, li.Price, li.Quantity, &orderID)
				if err := r.items.Create(ctx, item); err != nil {
					return nil, fmt.Errorf("failed to create cart item: %w", err)
				}
				lines = append(lines, *item)
				continue
			}

			if kept[*li.ID] {
				return nil, services.InvalidInput("cart item submitted more than once").WithDetail("id", li.ID.String())
			}
			item, ok := existing[*li.ID]
			if !ok {
				return nil, s.unknownItem(ctx, r.items, *li.ID)
			}

			item.ProductID = li.ProductID
			item.Price = li.Price
			item.Quantity = li.Quantity
			item.UpdatedAt = now
			if err := r.items.Update(ctx, item); err != nil {
				return nil, fmt.Errorf("failed to update cart item: %w", err)
			}
			kept[item.ID] = true
			lines = append(lines, *item)
		}

		for _, item := range current {
			if kept[item.ID] {
				continue
			}
			if err := r.items.Delete(ctx, item.ID); err != nil {
				return nil, fmt.Errorf("failed to delete cart item: %w", err)
			}
		}

		totals := Aggregate(lines)
		if err := totals.Validate(); err != nil {
			return nil, err
		}
		totals.Apply(order)
		order.UserID = in.UserID
		order.UpdatedAt = now
		if err := r.orders.Update(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to update order: %w", err)
		}

		return s.load(ctx, r, orderID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order updated",
		zap.String("order_id", orderID.String()),
		zap.Int("items", updated.Items),
		zap.String("total", updated.Total.String()))

	return updated, nil
}

// unknownItem reports whether id is absent or attached to another order
func (s *Service) unknownItem(ctx context.Context, items repositories.CartItemRepository, id uuid.UUID) error {
	item, err := items.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return services.ErrCartItemNotFound.WithDetail("id", id.String())
	}
	return services.ErrForeignCartItem.WithDetail("id", id.String())
}

// Remove deletes the order's line items and then the order itself
func (s *Service) Remove(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	removed, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Order, error) {
		r := s.bind(tx)
		order, err := s.load(ctx, r, orderID)
		if err != nil {
			return nil, err
		}

		if _, err := r.items.DeleteByOrderID(ctx, orderID); err != nil {
			return nil, fmt.Errorf("failed to delete cart items: %w", err)
		}
		if err := r.orders.Delete(ctx, orderID); err != nil {
			return nil, fmt.Errorf("failed to delete order: %w", err)
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order removed",
		zap.String("order_id", orderID.String()),
		zap.Int("cart_items", len(removed.CartItems)))

	return removed, nil
}

// UpdateStatus changes only the order's status
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if _, err := models.ParseOrderStatus(string(status)); err != nil {
		return nil, services.ErrInvalidOrderState.WithDetail("status", string(status))
	}

	updated, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Order, error) {
		r := s.bind(tx)
		order, err := r.orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock order: %w", err)
		}
		if order == nil {
			return nil, services.ErrOrderNotFound
		}

		if err := r.orders.UpdateStatus(ctx, orderID, status); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrOrderNotFound
			}
			return nil, fmt.Errorf("failed to update order status: %w", err)
		}
		return s.load(ctx, r, orderID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(status)))

	return updated, nil
}

// Get returns an order with its line items and owner
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.load(ctx, s.unbound(), orderID)
}

// List returns every order with its line items
func (s *Service) List(ctx context.Context) ([]*models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	out := make([]*models.Order, 0, len(orders))
	for _, o := range orders {
		items, err := s.items.ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list cart items: %w", err)
		}
		o.CartItems = values(items)
		out = append(out, o)
	}
	return out, nil
}

// OwnerOf returns the id of the user owning the order
func (s *Service) OwnerOf(ctx context.Context, orderID uuid.UUID) (uuid.UUID, bool, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return uuid.Nil, false, nil
	}
	return order.UserID, true, nil
}

func (s *Service) load(ctx context.Context, r txRepos, orderID uuid.UUID) (*models.Order, error) {
	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, services.ErrOrderNotFound
	}

	items, err := r.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	order.CartItems = values(items)

	user, err := r.users.GetByID(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		order.User = user.Public()
	}
	return order, nil
}

// Recalculate recomputes an order's aggregates from its current line items.
// The repositories should be bound to the caller's transaction; the order
// row stays locked until it ends.
func Recalculate(ctx context.Context, orders repositories.OrderRepository, items repositories.CartItemRepository, orderID uuid.UUID) error {
	order, err := orders.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return services.ErrOrderNotFound
	}

	current, err := items.ListByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to list cart items: %w", err)
	}

	totals := Aggregate(values(current))
	if len(current) > 0 {
		if err := totals.Validate(); err != nil {
			return err
		}
	}
	totals.Apply(order)
	order.UpdatedAt = time.Now().UTC()

	if err := orders.Update(ctx, order); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func validateLineItems(items []LineItemInput) error {
	if len(items) == 0 {
		return services.ErrEmptyOrder
	}
	for i, li := range items {
		if !li.Price.IsPositive() {
			return services.InvalidInput("price must be positive").WithDetail("index", i)
		}
		if li.Quantity <= 0 {
			return services.InvalidInput("quantity must be positive").WithDetail("index", i)
		}
	}
	return nil
}

func requireUser(ctx context.Context, users repositories.UserRepository, id uuid.UUID) error {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return services.ErrUserNotFound
	}
	return nil
}

func requireProduct(ctx context.Context, products repositories.ProductRepository, id uuid.UUID) error {
	product, err := products.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return services.ErrProductNotFound.WithDetail("id", id.String())
	}
	return nil
}
