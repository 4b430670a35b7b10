package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-api/internal/access"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// MockIdentityResolver is a mock implementation of IdentityResolver
type MockIdentityResolver struct {
	mock.Mock
}

func (m *MockIdentityResolver) Resolve(ctx context.Context, token string) (*models.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

type ownerMap map[uuid.UUID]uuid.UUID

func (o ownerMap) OwnerOf(_ context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	owner, ok := o[id]
	return owner, ok, nil
}

type accessFixture struct {
	resolver *MockIdentityResolver
	router   chi.Router
	admin    *models.Principal
	alice    *models.Principal
	bob      *models.Principal
	order    uuid.UUID
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	f := &accessFixture{
		resolver: new(MockIdentityResolver),
		admin:    &models.Principal{ID: uuid.New(), Name: "Root", Role: models.RoleAdmin},
		alice:    &models.Principal{ID: uuid.New(), Name: "Alice", Role: models.RoleCustomer},
		bob:      &models.Principal{ID: uuid.New(), Name: "Bob", Role: models.RoleCustomer},
		order:    uuid.New(),
	}
	f.resolver.On("Resolve", mock.Anything, "admin-token").Return(f.admin, nil).Maybe()
	f.resolver.On("Resolve", mock.Anything, "alice-token").Return(f.alice, nil).Maybe()
	f.resolver.On("Resolve", mock.Anything, "bob-token").Return(f.bob, nil).Maybe()
	f.resolver.On("Resolve", mock.Anything, "expired-token").Return(nil, services.ErrTokenExpired).Maybe()

	engine := access.NewEngine(map[access.ResourceKind]access.OwnerLookup{
		access.ResourceOrder: ownerMap{f.order: f.alice.ID},
	})
	m := NewAccessMiddleware(access.DefaultRoutes(), f.resolver, engine, nil, zap.NewNop())

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		name := "anonymous"
		if p != nil {
			name = p.Name
		}
		_ = utils.WriteOK(w, name)
	})

	r := chi.NewRouter()
	r.With(m.Authorize(access.Route(http.MethodPost, "/auth/login"))).Post("/auth/login", echo)
	r.With(m.Authorize(access.Route(http.MethodGet, "/products"))).Get("/products", echo)
	r.With(m.Authorize(access.Route(http.MethodPost, "/products"))).Post("/products", echo)
	r.With(m.Authorize(access.Route(http.MethodGet, "/orders/{id}"))).Get("/orders/{id}", echo)
	r.With(m.Authorize(access.Route(http.MethodGet, "/not-declared"))).Get("/not-declared", echo)
	f.router = r
	return f
}

func TestAuthorize(t *testing.T) {
	f := newAccessFixture(t)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		cookie     string
		wantStatus int
		wantBody   string
		wantError  string
	}{
		{name: "public route anonymous", method: http.MethodPost, path: "/auth/login", wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "public route with bad token stays anonymous", method: http.MethodPost, path: "/auth/login", token: "expired-token", wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "public route keeps valid principal", method: http.MethodPost, path: "/auth/login", token: "alice-token", wantStatus: http.StatusOK, wantBody: "Alice"},
		{name: "missing token", method: http.MethodGet, path: "/products", wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "expired token explains itself", method: http.MethodGet, path: "/products", token: "expired-token", wantStatus: http.StatusUnauthorized, wantError: "unauthorized"},
		{name: "customer reads products", method: http.MethodGet, path: "/products", token: "alice-token", wantStatus: http.StatusOK, wantBody: "Alice"},
		{name: "token from cookie", method: http.MethodGet, path: "/products", cookie: "alice-token", wantStatus: http.StatusOK, wantBody: "Alice"},
		{name: "customer cannot create products", method: http.MethodPost, path: "/products", token: "alice-token", wantStatus: http.StatusForbidden, wantError: "forbidden"},
		{name: "admin creates products", method: http.MethodPost, path: "/products", token: "admin-token", wantStatus: http.StatusOK, wantBody: "Root"},
		{name: "owner reads order", method: http.MethodGet, path: "/orders/" + f.order.String(), token: "alice-token", wantStatus: http.StatusOK, wantBody: "Alice"},
		{name: "admin reads any order", method: http.MethodGet, path: "/orders/" + f.order.String(), token: "admin-token", wantStatus: http.StatusOK, wantBody: "Root"},
		{name: "other customer denied", method: http.MethodGet, path: "/orders/" + f.order.String(), token: "bob-token", wantStatus: http.StatusForbidden, wantError: "forbidden"},
		{name: "unknown order", method: http.MethodGet, path: "/orders/" + uuid.NewString(), token: "alice-token", wantStatus: http.StatusNotFound, wantError: "not_found"},
		{name: "malformed order id", method: http.MethodGet, path: "/orders/42", token: "alice-token", wantStatus: http.StatusBadRequest, wantError: "bad_request"},
		{name: "undeclared route denied", method: http.MethodGet, path: "/not-declared", token: "admin-token", wantStatus: http.StatusForbidden, wantError: "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthTokenCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			f.router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				var resp utils.SuccessResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.wantBody, resp.Data)
				return
			}
			var resp utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestAuthorize_UsesErrorWriter(t *testing.T) {
	resolver := new(MockIdentityResolver)
	resolver.On("Resolve", mock.Anything, "stale").Return(nil, services.ErrTokenExpired)

	var written error
	writer := func(w http.ResponseWriter, err error) {
		written = err
		w.WriteHeader(http.StatusTeapot)
	}
	m := NewAccessMiddleware(access.DefaultRoutes(), resolver, access.NewEngine(nil), writer, zap.NewNop())

	handler := m.Authorize(access.Route(http.MethodGet, "/products"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "bearer stale")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "authentication token expired", services.GetErrorMessage(written))
	resolver.AssertExpectations(t)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"header wins over cookie", "Bearer abc", "def", "abc"},
		{"cookie fallback", "", "def", "def"},
		{"basic scheme ignored", "Basic abc", "", ""},
		{"no scheme", "abc", "", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthTokenCookieName, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, extractToken(req))
		})
	}
}

func TestPrincipalFromContext(t *testing.T) {
	assert.Nil(t, PrincipalFromContext(context.Background()))
	assert.Equal(t, uuid.Nil, GetUserIDFromContext(context.Background()))

	p := &models.Principal{ID: uuid.New(), Role: models.RoleCustomer}
	ctx := WithPrincipal(context.Background(), p)
	assert.Same(t, p, PrincipalFromContext(ctx))
	assert.Equal(t, p.ID, GetUserIDFromContext(ctx))
}
