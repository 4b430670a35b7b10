package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
)

// UserRepository implements repositories.UserRepository
type UserRepository struct{ scope scope }

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.users[user.ID]; ok {
			return fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)
		}
		for _, u := range d.users {
			if u.Email == user.Email {
				return fmt.Errorf("failed to create user: %w (email)", repositories.ErrDuplicate)
			}
		}
		d.users[user.ID] = *user
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := r.scope.read(func(d *dataset) error {
		if u, ok := d.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.scope.read(func(d *dataset) error {
		for _, u := range d.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	out := []*models.User{}
	err := r.scope.read(func(d *dataset) error {
		for _, u := range d.users {
			u := u
			out = append(out, &u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.users[user.ID]; !ok {
			return fmt.Errorf("update user: %w", repositories.ErrNotFound)
		}
		for id, u := range d.users {
			if id != user.ID && u.Email == user.Email {
				return fmt.Errorf("failed to update user: %w (email)", repositories.ErrDuplicate)
			}
		}
		d.users[user.ID] = *user
		return nil
	})
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.users[id]; !ok {
			return fmt.Errorf("delete user: %w", repositories.ErrNotFound)
		}
		for _, o := range d.orders {
			if o.UserID == id {
				return fmt.Errorf("failed to delete user: %w (orders)", repositories.ErrInUse)
			}
		}
		delete(d.users, id)
		return nil
	})
}

func (r *UserRepository) WithTx(tx repositories.Transaction) repositories.UserRepository {
	return &UserRepository{scope: r.scope.with(tx)}
}

// CategoryRepository implements repositories.CategoryRepository
type CategoryRepository struct{ scope scope }

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.categories[c.ID]; ok {
			return fmt.Errorf("failed to create category: %w", repositories.ErrDuplicate)
		}
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var out *models.Category
	err := r.scope.read(func(d *dataset) error {
		if c, ok := d.categories[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	out := []*models.Category{}
	err := r.scope.read(func(d *dataset) error {
		for _, c := range d.categories {
			c := c
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.categories[c.ID]; !ok {
			return fmt.Errorf("update category: %w", repositories.ErrNotFound)
		}
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.categories[id]; !ok {
			return fmt.Errorf("delete category: %w", repositories.ErrNotFound)
		}
		for _, p := range d.products {
			if p.CategoryID == id {
				return fmt.Errorf("failed to delete category: %w (products)", repositories.ErrInUse)
			}
		}
		delete(d.categories, id)
		return nil
	})
}

func (r *CategoryRepository) WithTx(tx repositories.Transaction) repositories.CategoryRepository {
	return &CategoryRepository{scope: r.scope.with(tx)}
}

// ProductRepository implements repositories.ProductRepository
type ProductRepository struct{ scope scope }

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.products[p.ID]; ok {
			return fmt.Errorf("failed to create product: %w", repositories.ErrDuplicate)
		}
		if _, ok := d.categories[p.CategoryID]; !ok {
			return fmt.Errorf("failed to create product: %w (category)", repositories.ErrNotFound)
		}
		d.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var out *models.Product
	err := r.scope.read(func(d *dataset) error {
		if p, ok := d.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	out := []*models.Product{}
	err := r.scope.read(func(d *dataset) error {
		for _, p := range d.products {
			p := p
			out = append(out, &p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.products[p.ID]; !ok {
			return fmt.Errorf("update product: %w", repositories.ErrNotFound)
		}
		d.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.products[id]; !ok {
			return fmt.Errorf("delete product: %w", repositories.ErrNotFound)
		}
		for _, c := range d.cartItems {
			if c.ProductID == id {
				return fmt.Errorf("failed to delete product: %w (cart items)", repositories.ErrInUse)
			}
		}
		delete(d.products, id)
		return nil
	})
}

func (r *ProductRepository) WithTx(tx repositories.Transaction) repositories.ProductRepository {
	return &ProductRepository{scope: r.scope.with(tx)}
}

// CartItemRepository implements repositories.CartItemRepository
type CartItemRepository struct{ scope scope }

func copyItem(c models.CartItem) *models.CartItem {
	if c.OrderID != nil {
		id := *c.OrderID
		c.OrderID = &id
	}
	return &c
}

func (r *CartItemRepository) Create(ctx context.Context, item *models.CartItem) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.cartItems[item.ID]; ok {
			return fmt.Errorf("failed to create cart item: %w", repositories.ErrDuplicate)
		}
		if _, ok := d.products[item.ProductID]; !ok {
			return fmt.Errorf("failed to create cart item: %w (product)", repositories.ErrNotFound)
		}
		if item.OrderID != nil {
			if _, ok := d.orders[*item.OrderID]; !ok {
				return fmt.Errorf("failed to create cart item: %w (order)", repositories.ErrNotFound)
			}
		}
		d.cartItems[item.ID] = *copyItem(*item)
		return nil
	})
}

func (r *CartItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var out *models.CartItem
	err := r.scope.read(func(d *dataset) error {
		if c, ok := d.cartItems[id]; ok {
			out = copyItem(c)
		}
		return nil
	})
	return out, err
}

func (r *CartItemRepository) List(ctx context.Context) ([]*models.CartItem, error) {
	return r.filter(func(models.CartItem) bool { return true })
}

func (r *CartItemRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.CartItem, error) {
	return r.filter(func(c models.CartItem) bool { return c.BelongsTo(orderID) })
}

func (r *CartItemRepository) filter(keep func(models.CartItem) bool) ([]*models.CartItem, error) {
	out := []*models.CartItem{}
	err := r.scope.read(func(d *dataset) error {
		for _, c := range d.cartItems {
			if keep(c) {
				out = append(out, copyItem(c))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r *CartItemRepository) Update(ctx context.Context, item *models.CartItem) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.cartItems[item.ID]; !ok {
			return fmt.Errorf("update cart item: %w", repositories.ErrNotFound)
		}
		d.cartItems[item.ID] = *copyItem(*item)
		return nil
	})
}

func (r *CartItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.cartItems[id]; !ok {
			return fmt.Errorf("delete cart item: %w", repositories.ErrNotFound)
		}
		delete(d.cartItems, id)
		return nil
	})
}

func (r *CartItemRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := r.scope.write(func(d *dataset) error {
		for id, c := range d.cartItems {
			if c.BelongsTo(orderID) {
				delete(d.cartItems, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *CartItemRepository) WithTx(tx repositories.Transaction) repositories.CartItemRepository {
	return &CartItemRepository{scope: r.scope.with(tx)}
}

// OrderRepository implements repositories.OrderRepository
type OrderRepository struct{ scope scope }

// orderRow strips relations; the orders table holds aggregates only
func orderRow(o models.Order) models.Order {
	o.CartItems = nil
	o.User = nil
	return o
}

func hydrate(o models.Order) *models.Order {
	o.CartItems = []models.CartItem{}
	return &o
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.orders[order.ID]; ok {
			return fmt.Errorf("failed to create order: %w", repositories.ErrDuplicate)
		}
		if _, ok := d.users[order.UserID]; !ok {
			return fmt.Errorf("failed to create order: %w (user)", repositories.ErrNotFound)
		}
		d.orders[order.ID] = orderRow(*order)
		return nil
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var out *models.Order
	err := r.scope.read(func(d *dataset) error {
		if o, ok := d.orders[id]; ok {
			out = hydrate(o)
		}
		return nil
	})
	return out, err
}

// GetByIDForUpdate is GetByID; transactions on the store are serialised
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) List(ctx context.Context) ([]*models.Order, error) {
	return r.filter(func(models.Order) bool { return true })
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.UserID == userID })
}

func (r *OrderRepository) filter(keep func(models.Order) bool) ([]*models.Order, error) {
	out := []*models.Order{}
	err := r.scope.read(func(d *dataset) error {
		for _, o := range d.orders {
			if keep(o) {
				out = append(out, hydrate(o))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.scope.write(func(d *dataset) error {
		cur, ok := d.orders[order.ID]
		if !ok {
			return fmt.Errorf("update order: %w", repositories.ErrNotFound)
		}
		row := orderRow(*order)
		row.Status = cur.Status
		d.orders[order.ID] = row
		return nil
	})
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	return r.scope.write(func(d *dataset) error {
		o, ok := d.orders[id]
		if !ok {
			return fmt.Errorf("update order status: %w", repositories.ErrNotFound)
		}
		o.Status = status
		d.orders[id] = o
		return nil
	})
}

func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.scope.write(func(d *dataset) error {
		if _, ok := d.orders[id]; !ok {
			return fmt.Errorf("delete order: %w", repositories.ErrNotFound)
		}
		for _, c := range d.cartItems {
			if c.BelongsTo(id) {
				return fmt.Errorf("failed to delete order: %w (cart items)", repositories.ErrInUse)
			}
		}
		delete(d.orders, id)
		return nil
	})
}

func (r *OrderRepository) WithTx(tx repositories.Transaction) repositories.OrderRepository {
	return &OrderRepository{scope: r.scope.with(tx)}
}
