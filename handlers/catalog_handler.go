package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services/category"
	"github.com/upb/storefront-api/services/product"
	"go.uber.org/zap"
)

// CategoryService defines the category operations
type CategoryService interface {
	Create(ctx context.Context, in category.CategoryInput) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, in category.CategoryInput) (*models.Category, error)
	Remove(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// ProductService defines the product operations
type ProductService interface {
	Create(ctx context.Context, in product.CreateProductInput) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, in product.UpdateProductInput) (*models.Product, error)
	Remove(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CatalogHandler handles /categories and /products
type CatalogHandler struct {
	categories CategoryService
	products   ProductService
	logger     *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(categories CategoryService, products ProductService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		categories: categories,
		products:   products,
		logger:     logger,
	}
}

// HandleCreateCategory handles POST /categories
func (h *CatalogHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in category.CategoryInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	c, err := h.categories.Create(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("category created",
		zap.String("request_id", requestID(r)),
		zap.String("category_id", c.ID.String()))
	writeCreated(w, c, h.logger)
}

// HandleListCategories handles GET /categories
func (h *CatalogHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, list, h.logger)
}

// HandleGetCategory handles GET /categories/{id}
func (h *CatalogHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, c, h.logger)
}

// HandleUpdateCategory handles PATCH /categories/{id}
func (h *CatalogHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	var in category.CategoryInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	c, err := h.categories.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, c, h.logger)
}

// HandleDeleteCategory handles DELETE /categories/{id}
func (h *CatalogHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	c, err := h.categories.Remove(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("category removed",
		zap.String("request_id", requestID(r)),
		zap.String("category_id", id.String()))
	writeOK(w, c, h.logger)
}

// HandleCreateProduct handles POST /products
func (h *CatalogHandler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.CreateProductInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	p, err := h.products.Create(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("product created",
		zap.String("request_id", requestID(r)),
		zap.String("product_id", p.ID.String()))
	writeCreated(w, p, h.logger)
}

// HandleListProducts handles GET /products
func (h *CatalogHandler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, list, h.logger)
}

// HandleGetProduct handles GET /products/{id}
func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, p, h.logger)
}

// HandleUpdateProduct handles PATCH /products/{id}
func (h *CatalogHandler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	var in product.UpdateProductInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	p, err := h.products.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, p, h.logger)
}

// HandleDeleteProduct handles DELETE /products/{id}
func (h *CatalogHandler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	p, err := h.products.Remove(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("product removed",
		zap.String("request_id", requestID(r)),
		zap.String("product_id", id.String()))
	writeOK(w, p, h.logger)
}
