package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/services/order"
	"go.uber.org/zap"
)

// OrderService defines the order operations
type OrderService interface {
	Create(ctx context.Context, in order.CreateOrderInput) (*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, in order.UpdateOrderInput) (*models.Order, error)
	Remove(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

// UpdateOrderStatusRequest is the payload for PATCH /orders/{id}/status
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// OrderHandler handles /orders
type OrderHandler struct {
	orders OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// HandleCreateOrder handles POST /orders
func (h *OrderHandler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in order.CreateOrderInput
	if !decode(w, r, &in, h.logger) {
		return
	}
	if err := requireSelf(r, in.UserID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	o, err := h.orders.Create(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("order created",
		zap.String("request_id", requestID(r)),
		zap.String("order_id", o.ID.String()),
		zap.Int("items", o.Items),
		zap.String("total", o.Total.StringFixed(2)))
	writeCreated(w, o, h.logger)
}

// HandleListOrders handles GET /orders
func (h *OrderHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, list, h.logger)
}

// HandleGetOrder handles GET /orders/{id}
func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, o, h.logger)
}

// HandleUpdateOrder handles PATCH /orders/{id}
func (h *OrderHandler) HandleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	var in order.UpdateOrderInput
	if !decode(w, r, &in, h.logger) {
		return
	}
	if err := requireSelf(r, in.UserID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	o, err := h.orders.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, o, h.logger)
}

// HandleDeleteOrder handles DELETE /orders/{id}
func (h *OrderHandler) HandleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	o, err := h.orders.Remove(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("order removed",
		zap.String("request_id", requestID(r)),
		zap.String("order_id", id.String()),
		zap.Int("items", len(o.CartItems)))
	writeOK(w, o, h.logger)
}

// HandleUpdateOrderStatus handles PATCH /orders/{id}/status
func (h *OrderHandler) HandleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	var in UpdateOrderStatusRequest
	if !decode(w, r, &in, h.logger) {
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, o, h.logger)
}

// requireSelf stops customers from placing or moving orders under another user
func requireSelf(r *http.Request, userID uuid.UUID) error {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil || p.IsAdmin() || p.ID == userID {
		return nil
	}
	return services.ErrNotOwner.WithDetail("userId", userID.String())
}
