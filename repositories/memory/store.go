// Package memory is an in-process implementation of the repository
// interfaces, used by the memory driver and by service tests.
package memory

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

// ErrTxDone is returned when a finished transaction is used again
var ErrTxDone = errors.New("transaction already committed or rolled back")

// dataset holds every table. Rows are stored by value so callers never
// alias stored state.
type dataset struct {
	users      map[uuid.UUID]models.User
	categories map[uuid.UUID]models.Category
	products   map[uuid.UUID]models.Product
	cartItems  map[uuid.UUID]models.CartItem
	orders     map[uuid.UUID]models.Order
}

func newDataset() *dataset {
	return &dataset{
		users:      map[uuid.UUID]models.User{},
		categories: map[uuid.UUID]models.Category{},
		products:   map[uuid.UUID]models.Product{},
		cartItems:  map[uuid.UUID]models.CartItem{},
		orders:     map[uuid.UUID]models.Order{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (d *dataset) clone() *dataset {
	return &dataset{
		users:      cloneMap(d.users),
		categories: cloneMap(d.categories),
		products:   cloneMap(d.products),
		cartItems:  cloneMap(d.cartItems),
		orders:     cloneMap(d.orders),
	}
}

// Store is the shared in-memory database
type Store struct {
	mu     sync.RWMutex
	data   *dataset
	txGate chan struct{}
	logger *zap.Logger
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger) *Store {
	return &Store{data: newDataset(), txGate: make(chan struct{}, 1), logger: logger}
}

// scope is what a repository operates on: either the store itself or a
// transaction's private copy.
type scope struct {
	store *Store
	tx    *Transaction
}

func (s scope) read(fn func(d *dataset) error) error {
	if s.tx != nil {
		return s.tx.read(fn)
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return fn(s.store.data)
}

func (s scope) write(fn func(d *dataset) error) error {
	if s.tx != nil {
		return s.tx.write(fn)
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fn(s.store.data)
}

// with binds the scope to tx when tx belongs to this store
func (s scope) with(tx repositories.Transaction) scope {
	if mt, ok := tx.(*Transaction); ok && mt.store == s.store {
		return scope{store: s.store, tx: mt}
	}
	return scope{store: s.store}
}

// NewRepositories creates all repository instances over the store
func (s *Store) NewRepositories() *repositories.Repositories {
	sc := scope{store: s}
	return &repositories.Repositories{
		Users:      &UserRepository{scope: sc},
		Categories: &CategoryRepository{scope: sc},
		Products:   &ProductRepository{scope: sc},
		CartItems:  &CartItemRepository{scope: sc},
		Orders:     &OrderRepository{scope: sc},
	}
}

// TransactionManager returns a transaction manager for the store
func (s *Store) TransactionManager() repositories.TransactionManager {
	return &TransactionManager{store: s}
}

// TransactionManager implements repositories.TransactionManager.
// Transactions run one at a time; each works on a private copy and Commit
// replays only the rows it changed onto the live data, so writes made
// outside the transaction in the meantime survive.
type TransactionManager struct {
	store *Store
}

// Begin waits for the running transaction to finish, then snapshots the store
func (m *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	select {
	case m.store.txGate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.store.mu.RLock()
	base := m.store.data.clone()
	m.store.mu.RUnlock()

	return &Transaction{store: m.store, base: base, data: base.clone(), ctx: ctx}, nil
}

// InTransaction executes fn within a transaction
func (m *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Transaction is a private copy of the store plus the state it started from
type Transaction struct {
	mu    sync.Mutex
	store *Store
	base  *dataset
	data  *dataset
	ctx   context.Context
	done  bool
}

func (t *Transaction) read(fn func(d *dataset) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	return fn(t.data)
}

func (t *Transaction) write(fn func(d *dataset) error) error {
	return t.read(fn)
}

// Commit applies the rows this transaction inserted, changed or deleted
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxDone
	}
	defer t.finish()
	if err := t.ctx.Err(); err != nil {
		return err
	}

	t.store.mu.Lock()
	live := t.store.data
	n := replay(live.users, t.base.users, t.data.users)
	n += replay(live.categories, t.base.categories, t.data.categories)
	n += replay(live.products, t.base.products, t.data.products)
	n += replay(live.cartItems, t.base.cartItems, t.data.cartItems)
	n += replay(live.orders, t.base.orders, t.data.orders)
	t.store.mu.Unlock()

	if t.store.logger != nil {
		t.store.logger.Debug("memory transaction committed", zap.Int("rows", n))
	}
	return nil
}

// Rollback discards the transaction's copy. Rolling back twice is a no-op.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

// finish releases the store for the next transaction; t.mu must be held
func (t *Transaction) finish() {
	t.done = true
	t.base, t.data = nil, nil
	<-t.store.txGate
}

// replay copies the difference between base and changed onto live and
// returns the number of rows touched
func replay[K comparable, V any](live, base, changed map[K]V) int {
	n := 0
	for k, v := range changed {
		if old, ok := base[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		live[k] = v
		n++
	}
	for k := range base {
		if _, ok := changed[k]; !ok {
			delete(live, k)
			n++
		}
	}
	return n
}

// Context returns the transaction context
func (t *Transaction) Context() context.Context {
	return t.ctx
}
