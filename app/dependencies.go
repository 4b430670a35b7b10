package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/upb/storefront-api/auth"
	"github.com/upb/storefront-api/config"
	"github.com/upb/storefront-api/handlers"
	"github.com/upb/storefront-api/internal/access"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/repositories"
	"github.com/upb/storefront-api/repositories/memory"
	"github.com/upb/storefront-api/repositories/postgres"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/services/cartitem"
	"github.com/upb/storefront-api/services/category"
	"github.com/upb/storefront-api/services/order"
	"github.com/upb/storefront-api/services/product"
	"github.com/upb/storefront-api/services/user"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB // nil with the memory driver

	// Storage
	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories
	TxManager   repositories.TransactionManager

	// Services
	Tokens     *auth.TokenIssuer
	Accounts   *services.AccountService
	Users      *user.Service
	Categories *category.Service
	Products   *product.Service
	CartItems  *cartitem.Service
	Orders     *order.Service

	// Access control
	Routes      access.RouteTable
	Access      *middleware.AccessMiddleware
	RateLimiter *middleware.RateLimiter

	// HTTP handlers
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	CatalogHandler  *handlers.CatalogHandler
	CartItemHandler *handlers.CartItemHandler
	OrderHandler    *handlers.OrderHandler
	HealthHandler   *handlers.HealthHandler

	stop context.CancelFunc
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStorage(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	deps.initServices(cfg)
	deps.initAccess(ctx, cfg)
	deps.initHandlers(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("storage", cfg.Database.Driver))
	return deps, nil
}

// initStorage selects the repository backend from the configured driver
func (d *Dependencies) initStorage(ctx context.Context, cfg *config.Config) error {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore(d.Logger)
		d.Repos = store.NewRepositories()
		d.TxManager = store.TransactionManager()
		d.Logger.Info("using in-memory storage")
		return nil
	case config.DriverPostgres:
		factory, err := postgres.NewRepositoryFactory(cfg.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := factory.InitSchema(ctx); err != nil {
				_ = factory.Close()
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
		}
		d.RepoFactory = factory
		d.DB = factory.GetDB()
		d.Repos = factory.NewRepositories()
		d.TxManager = factory.GetTransactionManager()
		return nil
	}
	return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.Tokens = auth.NewTokenIssuer(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	d.Accounts = services.NewAccountService(d.Repos.Users, hasher, d.Tokens, d.Logger.Named("accounts"))
	d.Users = user.NewService(d.Repos, d.Accounts, d.TxManager, d.Logger.Named("users"))
	d.Categories = category.NewService(d.Repos.Categories, d.Logger.Named("categories"))
	d.Products = product.NewService(d.Repos.Products, d.Repos.Categories, d.Logger.Named("products"))
	d.CartItems = cartitem.NewService(d.Repos, d.TxManager, d.Logger.Named("cart_items"))
	d.Orders = order.NewService(d.Repos, d.TxManager, d.Logger.Named("orders"))
}

func (d *Dependencies) initAccess(ctx context.Context, cfg *config.Config) {
	d.Routes = access.DefaultRoutes()
	engine := access.NewEngine(map[access.ResourceKind]access.OwnerLookup{
		access.ResourceOrder:    d.Orders,
		access.ResourceCartItem: d.CartItems,
	})
	accessLogger := d.Logger.Named("access")
	d.Access = middleware.NewAccessMiddleware(
		d.Routes,
		access.NewResolver(d.Tokens),
		engine,
		func(w http.ResponseWriter, err error) { handlers.HandleServiceError(w, err, accessLogger) },
		accessLogger,
	)

	if cfg.RateLimit.Enabled {
		limiterCtx, cancel := context.WithCancel(ctx)
		d.stop = cancel
		d.RateLimiter = middleware.NewRateLimiter(limiterCtx, middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
	}
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	logger := d.Logger.Named("http")
	d.AuthHandler = handlers.NewAuthHandler(d.Accounts, handlers.CookieConfig{
		Secure: cfg.Auth.CookieSecure,
		TTL:    cfg.Auth.TokenTTL,
	}, logger)
	d.UserHandler = handlers.NewUserHandler(d.Users, logger)
	d.CatalogHandler = handlers.NewCatalogHandler(d.Categories, d.Products, logger)
	d.CartItemHandler = handlers.NewCartItemHandler(d.CartItems, logger)
	d.OrderHandler = handlers.NewOrderHandler(d.Orders, logger)

	// a nil *postgres.DB must not become a non-nil Pinger
	if d.DB != nil {
		d.HealthHandler = handlers.NewHealthHandler(d.DB, cfg.Database.Driver, logger)
	} else {
		d.HealthHandler = handlers.NewHealthHandler(nil, cfg.Database.Driver, logger)
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.stop != nil {
		d.stop()
	}

	var errs []error
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
