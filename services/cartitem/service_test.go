package cartitem

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"github.com/upb/storefront-api/repositories/memory"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/services/order"
	"go.uber.org/zap"
)

type fixture struct {
	svc     *Service
	owner   *models.Principal
	orders  *order.Service
	repos   *repositories.Repositories
	user    *models.User
	product *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(zap.NewNop())
	repos := store.NewRepositories()

	user := models.NewUser("Jane", "jane@example.com", "1", "x", nil, "")
	require.NoError(t, repos.Users.Create(ctx, user))
	cat := models.NewCategory("Garden")
	require.NoError(t, repos.Categories.Create(ctx, cat))
	p := &models.Product{ID: uuid.New(), Name: "Rake", Price: decimal.NewFromInt(12), Quantity: 5, CategoryID: cat.ID}
	require.NoError(t, repos.Products.Create(ctx, p))

	return &fixture{
		svc:     NewService(repos, store.TransactionManager(), zap.NewNop()),
		owner:   &models.Principal{ID: user.ID, Name: user.Name, Role: models.RoleCustomer},
		orders:  order.NewService(repos, store.TransactionManager(), zap.NewNop()),
		repos:   repos,
		user:    user,
		product: p,
	}
}

func (f *fixture) order(t *testing.T, price string, qty int) *models.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), order.CreateOrderInput{
		UserID:    f.user.ID,
		CartItems: []order.LineItemInput{{ProductID: f.product.ID, Price: decimal.RequireFromString(price), Quantity: qty}},
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) totals(t *testing.T, id uuid.UUID) (int, decimal.Decimal) {
	t.Helper()
	o, err := f.repos.Orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o.Items, o.Total
}

func TestService_CreateAttachedRecomputesOrder(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, "10.00", 1)

	_, err := f.svc.Create(context.Background(), CreateCartItemInput{
		ProductID: f.product.ID, Price: decimal.RequireFromString("2.50"), Quantity: 2, OrderID: &o.ID,
	}, f.owner)
	require.NoError(t, err)

	items, total := f.totals(t, o.ID)
	assert.Equal(t, 3, items)
	assert.True(t, decimal.RequireFromString("15.00").Equal(total))
}

func TestService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := f.svc.Create(ctx, CreateCartItemInput{ProductID: uuid.New(), Price: decimal.NewFromInt(1), Quantity: 1}, f.owner)
	assert.Equal(t, services.GetErrorMessage(services.ErrProductNotFound), services.GetErrorMessage(err))

	_, err = f.svc.Create(ctx, CreateCartItemInput{ProductID: f.product.ID, Price: decimal.NewFromInt(1), Quantity: 1, OrderID: &missing}, f.owner)
	assert.Equal(t, services.GetErrorMessage(services.ErrOrderNotFound), services.GetErrorMessage(err))

	_, err = f.svc.Create(ctx, CreateCartItemInput{ProductID: f.product.ID, Price: decimal.Zero, Quantity: 1}, f.owner)
	assert.True(t, services.IsValidationError(err))

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_UpdateRecomputesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, "10.00", 1)
	qty := 4

	_, err := f.svc.Update(ctx, o.CartItems[0].ID, UpdateCartItemInput{Quantity: &qty}, f.owner)
	require.NoError(t, err)

	items, total := f.totals(t, o.ID)
	assert.Equal(t, 4, items)
	assert.True(t, decimal.RequireFromString("40.00").Equal(total))
}

func TestService_MoveBetweenOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	from := f.order(t, "10.00", 1)
	to := f.order(t, "1.00", 1)

	extra, err := f.svc.Create(ctx, CreateCartItemInput{
		ProductID: f.product.ID, Price: decimal.RequireFromString("5.00"), Quantity: 1, OrderID: &from.ID,
	}, f.owner)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, extra.ID, UpdateCartItemInput{OrderID: &to.ID}, f.owner)
	require.NoError(t, err)

	items, total := f.totals(t, from.ID)
	assert.Equal(t, 1, items)
	assert.True(t, decimal.RequireFromString("10.00").Equal(total))

	items, total = f.totals(t, to.ID)
	assert.Equal(t, 2, items)
	assert.True(t, decimal.RequireFromString("6.00").Equal(total))
}

func TestService_RemoveRecomputesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, "10.00", 1)

	removed, err := f.svc.Remove(ctx, o.CartItems[0].ID)
	require.NoError(t, err)
	assert.Equal(t, o.CartItems[0].ID, removed.ID)

	items, total := f.totals(t, o.ID)
	assert.Zero(t, items)
	assert.True(t, total.IsZero())

	_, err = f.svc.Get(ctx, removed.ID)
	assert.True(t, services.IsNotFoundError(err))
}

func TestService_ForeignOrderIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, "19.99", 3)
	stranger := &models.Principal{ID: uuid.New(), Role: models.RoleCustomer}
	admin := &models.Principal{ID: uuid.New(), Role: models.RoleAdmin}

	_, err := f.svc.Create(ctx, CreateCartItemInput{
		ProductID: f.product.ID, Price: decimal.RequireFromString("0.01"), Quantity: 1, OrderID: &o.ID,
	}, stranger)
	assert.ErrorIs(t, err, services.ErrNotOwner)

	loose, err := f.svc.Create(ctx, CreateCartItemInput{
		ProductID: f.product.ID, Price: decimal.RequireFromString("1.00"), Quantity: 1,
	}, stranger)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, loose.ID, UpdateCartItemInput{OrderID: &o.ID}, stranger)
	assert.ErrorIs(t, err, services.ErrNotOwner)

	items, total := f.totals(t, o.ID)
	assert.Equal(t, 3, items)
	assert.True(t, decimal.RequireFromString("59.97").Equal(total))

	_, err = f.svc.Update(ctx, loose.ID, UpdateCartItemInput{OrderID: &o.ID}, admin)
	require.NoError(t, err)
	items, _ = f.totals(t, o.ID)
	assert.Equal(t, 4, items)
}

func TestService_OwnerOf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, "10.00", 1)

	owner, found, err := f.svc.OwnerOf(ctx, o.CartItems[0].ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, f.user.ID, owner)

	loose, err := f.svc.Create(ctx, CreateCartItemInput{ProductID: f.product.ID, Price: decimal.NewFromInt(1), Quantity: 1}, f.owner)
	require.NoError(t, err)
	owner, found, err = f.svc.OwnerOf(ctx, loose.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uuid.Nil, owner)

	_, found, err = f.svc.OwnerOf(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}
