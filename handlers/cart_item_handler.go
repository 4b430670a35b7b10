package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services/cartitem"
	"go.uber.org/zap"
)

// CartItemService defines the cart item operations
type CartItemService interface {
	Create(ctx context.Context, in cartitem.CreateCartItemInput, principal *models.Principal) (*models.CartItem, error)
	List(ctx context.Context) ([]*models.CartItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	Update(ctx context.Context, id uuid.UUID, in cartitem.UpdateCartItemInput, principal *models.Principal) (*models.CartItem, error)
	Remove(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
}

// CartItemHandler handles /cart-items
type CartItemHandler struct {
	items  CartItemService
	logger *zap.Logger
}

// NewCartItemHandler creates a new CartItemHandler
func NewCartItemHandler(items CartItemService, logger *zap.Logger) *CartItemHandler {
	return &CartItemHandler{items: items, logger: logger}
}

// HandleCreateCartItem handles POST /cart-items
func (h *CartItemHandler) HandleCreateCartItem(w http.ResponseWriter, r *http.Request) {
	var in cartitem.CreateCartItemInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	item, err := h.items.Create(r.Context(), in, middleware.PrincipalFromContext(r.Context()))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, item, h.logger)
}

// HandleListCartItems handles GET /cart-items
func (h *CartItemHandler) HandleListCartItems(w http.ResponseWriter, r *http.Request) {
	list, err := h.items.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, list, h.logger)
}

// HandleGetCartItem handles GET /cart-items/{id}
func (h *CartItemHandler) HandleGetCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, item, h.logger)
}

// HandleUpdateCartItem handles PATCH /cart-items/{id}
func (h *CartItemHandler) HandleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	var in cartitem.UpdateCartItemInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	item, err := h.items.Update(r.Context(), id, in, middleware.PrincipalFromContext(r.Context()))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, item, h.logger)
}

// HandleDeleteCartItem handles DELETE /cart-items/{id}
func (h *CartItemHandler) HandleDeleteCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	item, err := h.items.Remove(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, item, h.logger)
}
