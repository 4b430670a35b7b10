package access

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/upb/storefront-api/models"
)

// RouteID identifies a route as "METHOD /pattern", e.g. "GET /orders/{id}"
type RouteID string

// Route builds a RouteID from a method and a chi pattern
func Route(method, pattern string) RouteID {
	return RouteID(strings.ToUpper(method) + " " + pattern)
}

// ResourceKind names a resource whose owner can be looked up
type ResourceKind string

const (
	ResourceOrder    ResourceKind = "order"
	ResourceCartItem ResourceKind = "cart_item"
)

func (k ResourceKind) valid() bool {
	return k == ResourceOrder || k == ResourceCartItem
}

// OwnershipRule marks a route as ownership-sensitive. Param is the path
// parameter carrying the id of the resource.
type OwnershipRule struct {
	Resource ResourceKind
	Param    string
}

// RouteMetadata holds the access attributes declared for a route
type RouteMetadata struct {
	Public       bool
	AllowedRoles []models.Role
	Ownership    *OwnershipRule
}

// Allows reports whether role is in the route's allow-list. Matching is exact.
func (m RouteMetadata) Allows(role models.Role) bool {
	for _, r := range m.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Validate checks that the route declares exactly one of Public or a role set
func (m RouteMetadata) Validate() error {
	switch {
	case m.Public && len(m.AllowedRoles) > 0:
		return errors.New("route declares both public and roles")
	case !m.Public && len(m.AllowedRoles) == 0:
		return errors.New("route declares neither public nor roles")
	case m.Public && m.Ownership != nil:
		return errors.New("public route cannot require ownership")
	}

	for _, r := range m.AllowedRoles {
		if !r.Valid() {
			return fmt.Errorf("unknown role %q", r)
		}
	}

	if m.Ownership != nil {
		if !m.Ownership.Resource.valid() {
			return fmt.Errorf("unknown resource kind %q", m.Ownership.Resource)
		}
		if m.Ownership.Param == "" {
			return errors.New("ownership rule has no path parameter")
		}
	}
	return nil
}

// RouteTable maps every route to its metadata
type RouteTable map[RouteID]RouteMetadata

// Lookup returns the metadata for id
func (t RouteTable) Lookup(id RouteID) (RouteMetadata, bool) {
	m, ok := t[id]
	return m, ok
}

// Validate checks every entry and reports all offending routes at once
func (t RouteTable) Validate() error {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := t[RouteID(id)].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

var (
	public        = RouteMetadata{Public: true}
	adminOnly     = RouteMetadata{AllowedRoles: []models.Role{models.RoleAdmin}}
	authenticated = RouteMetadata{AllowedRoles: []models.Role{models.RoleAdmin, models.RoleCustomer}}
	ownOrder      = RouteMetadata{
		AllowedRoles: []models.Role{models.RoleAdmin, models.RoleCustomer},
		Ownership:    &OwnershipRule{Resource: ResourceOrder, Param: "id"},
	}
	ownCartItem = RouteMetadata{
		AllowedRoles: []models.Role{models.RoleAdmin, models.RoleCustomer},
		Ownership:    &OwnershipRule{Resource: ResourceCartItem, Param: "id"},
	}
)

// DefaultRoutes returns the route table served by the API
func DefaultRoutes() RouteTable {
	return RouteTable{
		Route(http.MethodGet, "/healthz"): public,
		Route(http.MethodGet, "/readyz"):  public,

		Route(http.MethodPost, "/auth/signup"):           public,
		Route(http.MethodPost, "/auth/login"):            public,
		Route(http.MethodPatch, "/auth/change-password"): public,
		Route(http.MethodPatch, "/auth/edit-profile"):    public,

		Route(http.MethodPost, "/products"):        adminOnly,
		Route(http.MethodGet, "/products"):         authenticated,
		Route(http.MethodGet, "/products/{id}"):    authenticated,
		Route(http.MethodPatch, "/products/{id}"):  adminOnly,
		Route(http.MethodDelete, "/products/{id}"): adminOnly,

		Route(http.MethodPost, "/categories"):        adminOnly,
		Route(http.MethodGet, "/categories"):         adminOnly,
		Route(http.MethodGet, "/categories/{id}"):    adminOnly,
		Route(http.MethodPatch, "/categories/{id}"):  adminOnly,
		Route(http.MethodDelete, "/categories/{id}"): adminOnly,

		Route(http.MethodPost, "/users"):              adminOnly,
		Route(http.MethodGet, "/users"):               adminOnly,
		Route(http.MethodGet, "/users/current-user"):  authenticated,
		Route(http.MethodPatch, "/users/change-role"): adminOnly,
		Route(http.MethodGet, "/users/{id}"):          adminOnly,
		Route(http.MethodPatch, "/users/{id}"):        adminOnly,
		Route(http.MethodDelete, "/users/{id}"):       adminOnly,

		Route(http.MethodPost, "/cart-items"):        authenticated,
		Route(http.MethodGet, "/cart-items"):         adminOnly,
		Route(http.MethodGet, "/cart-items/{id}"):    ownCartItem,
		Route(http.MethodPatch, "/cart-items/{id}"):  ownCartItem,
		Route(http.MethodDelete, "/cart-items/{id}"): ownCartItem,

		Route(http.MethodPost, "/orders"):              authenticated,
		Route(http.MethodGet, "/orders"):               adminOnly,
		Route(http.MethodGet, "/orders/{id}"):          ownOrder,
		Route(http.MethodPatch, "/orders/{id}"):        ownOrder,
		Route(http.MethodDelete, "/orders/{id}"):       ownOrder,
		Route(http.MethodPatch, "/orders/{id}/status"): adminOnly,
	}
}
