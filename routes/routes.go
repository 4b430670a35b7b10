package routes

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/storefront-api/app"
	"github.com/upb/storefront-api/internal/access"
	appmw "github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
)

// binder registers handlers behind the access middleware and remembers
// which route ids were bound
type binder struct {
	r      chi.Router
	access *appmw.AccessMiddleware
	bound  map[access.RouteID]bool
}

func (b *binder) handle(method, pattern string, h http.HandlerFunc, extra ...func(http.Handler) http.Handler) {
	id := access.Route(method, pattern)
	// extra middlewares such as the throttle run before token verification
	mws := append([]func(http.Handler) http.Handler{nameSpan(method, pattern)}, extra...)
	mws = append(mws, b.access.Authorize(id))
	b.r.With(mws...).Method(method, pattern, h)
	b.bound[id] = true
}

// nameSpan renames the request span after the matched route template so
// span names stay bounded no matter which ids a client sends
func nameSpan(method, pattern string) func(http.Handler) http.Handler {
	name := method + " " + pattern
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			span := trace.SpanFromContext(r.Context())
			span.SetName(name)
			span.SetAttributes(semconv.HTTPRouteKey.String(pattern))
			next.ServeHTTP(w, r)
		})
	}
}

// SetupRoutes configures all application routes and middleware.
// It panics when the bound routes and the access table disagree.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	if err := deps.Routes.Validate(); err != nil {
		panic(fmt.Sprintf("invalid route table: %v", err))
	}

	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmw.RequestLogger(deps.Logger.Named("http")))
	r.Use(middleware.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	b := &binder{r: r, access: deps.Access, bound: make(map[access.RouteID]bool)}

	// Health check endpoints
	b.handle(http.MethodGet, "/healthz", deps.HealthHandler.HandleHealth)
	b.handle(http.MethodGet, "/readyz", deps.HealthHandler.HandleReadiness)

	// Account endpoints, throttled per client
	var throttle []func(http.Handler) http.Handler
	if deps.RateLimiter != nil {
		throttle = append(throttle, deps.RateLimiter.Handler)
	}
	b.handle(http.MethodPost, "/auth/signup", deps.AuthHandler.HandleSignup, throttle...)
	b.handle(http.MethodPost, "/auth/login", deps.AuthHandler.HandleLogin, throttle...)
	b.handle(http.MethodPatch, "/auth/change-password", deps.AuthHandler.HandleChangePassword, throttle...)
	b.handle(http.MethodPatch, "/auth/edit-profile", deps.AuthHandler.HandleEditProfile, throttle...)

	catalog := deps.CatalogHandler
	b.handle(http.MethodPost, "/products", catalog.HandleCreateProduct)
	b.handle(http.MethodGet, "/products", catalog.HandleListProducts)
	b.handle(http.MethodGet, "/products/{id}", catalog.HandleGetProduct)
	b.handle(http.MethodPatch, "/products/{id}", catalog.HandleUpdateProduct)
	b.handle(http.MethodDelete, "/products/{id}", catalog.HandleDeleteProduct)

	b.handle(http.MethodPost, "/categories", catalog.HandleCreateCategory)
	b.handle(http.MethodGet, "/categories", catalog.HandleListCategories)
	b.handle(http.MethodGet, "/categories/{id}", catalog.HandleGetCategory)
	b.handle(http.MethodPatch, "/categories/{id}", catalog.HandleUpdateCategory)
	b.handle(http.MethodDelete, "/categories/{id}", catalog.HandleDeleteCategory)

	users := deps.UserHandler
	b.handle(http.MethodPost, "/users", users.HandleCreateUser)
	b.handle(http.MethodGet, "/users", users.HandleListUsers)
	b.handle(http.MethodGet, "/users/current-user", users.HandleGetCurrentUser)
	b.handle(http.MethodPatch, "/users/change-role", users.HandleChangeRole)
	b.handle(http.MethodGet, "/users/{id}", users.HandleGetUser)
	b.handle(http.MethodPatch, "/users/{id}", users.HandleUpdateUser)
	b.handle(http.MethodDelete, "/users/{id}", users.HandleDeleteUser)

	items := deps.CartItemHandler
	b.handle(http.MethodPost, "/cart-items", items.HandleCreateCartItem)
	b.handle(http.MethodGet, "/cart-items", items.HandleListCartItems)
	b.handle(http.MethodGet, "/cart-items/{id}", items.HandleGetCartItem)
	b.handle(http.MethodPatch, "/cart-items/{id}", items.HandleUpdateCartItem)
	b.handle(http.MethodDelete, "/cart-items/{id}", items.HandleDeleteCartItem)

	orders := deps.OrderHandler
	b.handle(http.MethodPost, "/orders", orders.HandleCreateOrder)
	b.handle(http.MethodGet, "/orders", orders.HandleListOrders)
	b.handle(http.MethodGet, "/orders/{id}", orders.HandleGetOrder)
	b.handle(http.MethodPatch, "/orders/{id}", orders.HandleUpdateOrder)
	b.handle(http.MethodDelete, "/orders/{id}", orders.HandleDeleteOrder)
	b.handle(http.MethodPatch, "/orders/{id}/status", orders.HandleUpdateOrderStatus)

	if err := checkCoverage(deps.Routes, b.bound); err != nil {
		panic(err.Error())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusNotFound, "endpoint not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return otelhttp.NewHandler(r, "storefront-api",
		// unmatched requests keep the bare method; bound routes rename it
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method
		}),
	)
}

// checkCoverage reports table entries without a handler and handlers
// without a table entry
func checkCoverage(table access.RouteTable, bound map[access.RouteID]bool) error {
	var problems []string
	for id := range table {
		if !bound[id] {
			problems = append(problems, fmt.Sprintf("%s: declared but not bound", id))
		}
	}
	for id := range bound {
		if _, ok := table.Lookup(id); !ok {
			problems = append(problems, fmt.Sprintf("%s: bound without access metadata", id))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("route table mismatch: %s", strings.Join(problems, "; "))
}
