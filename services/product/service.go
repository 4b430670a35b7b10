// Package product implements catalog management.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"github.com/upb/storefront-api/services"
	"go.uber.org/zap"
)

// CreateProductInput is the payload for adding a product
type CreateProductInput struct {
	Name         string           `json:"name" validate:"required,min=2,max=100"`
	Price        decimal.Decimal  `json:"price" validate:"gt=0"`
	Rating       *decimal.Decimal `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Brand        string           `json:"brand" validate:"required,max=100"`
	Quantity     int              `json:"quantity" validate:"required,gt=0"`
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	ProductImage *string          `json:"productImage,omitempty" validate:"omitempty,url"`
	CategoryID   uuid.UUID        `json:"categoryId" validate:"required"`
}

// UpdateProductInput is the payload for editing a product. Nil fields are left unchanged.
type UpdateProductInput struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Price        *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gt=0"`
	Rating       *decimal.Decimal `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Brand        *string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	Quantity     *int             `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	ProductImage *string          `json:"productImage,omitempty" validate:"omitempty,url"`
	CategoryID   *uuid.UUID       `json:"categoryId,omitempty"`
}

// Service handles products
type Service struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	logger     *zap.Logger
}

// NewService creates a new product service
func NewService(products repositories.ProductRepository, categories repositories.CategoryRepository, logger *zap.Logger) *Service {
	return &Service{products: products, categories: categories, logger: logger}
}

// Create adds a product to an existing category
func (s *Service) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if !in.Price.IsPositive() {
		return nil, services.InvalidInput("price must be positive")
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &models.Product{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Price:        in.Price,
		Rating:       in.Rating,
		Brand:        in.Brand,
		Quantity:     in.Quantity,
		Description:  in.Description,
		ProductImage: in.ProductImage,
		CategoryID:   in.CategoryID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, s.translate("create", err)
	}

	s.logger.Info("product created",
		zap.String("product_id", p.ID.String()),
		zap.String("category_id", p.CategoryID.String()))
	return p, nil
}

// List returns every product
func (s *Service) List(ctx context.Context) ([]*models.Product, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if all == nil {
		all = []*models.Product{}
	}
	return all, nil
}

// Get returns a product by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, services.ErrProductNotFound
	}
	return p, nil
}

// Update applies the non-nil fields of in
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateProductInput) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.CategoryID != nil {
		if err := s.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = *in.CategoryID
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, services.InvalidInput("price must be positive")
		}
		p.Price = *in.Price
	}
	if in.Rating != nil {
		p.Rating = in.Rating
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.ProductImage != nil {
		p.ProductImage = in.ProductImage
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, s.translate("update", err)
	}
	return p, nil
}

// Remove deletes a product that no line item references
func (s *Service) Remove(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return nil, s.translate("delete", err)
	}
	s.logger.Info("product removed", zap.String("product_id", id.String()))
	return p, nil
}

func (s *Service) requireCategory(ctx context.Context, id uuid.UUID) error {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}
	if c == nil {
		return services.ErrCategoryNotFound.WithDetail("categoryId", id.String())
	}
	return nil
}

func (s *Service) translate(op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrProductNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return services.ErrDuplicate
	case errors.Is(err, repositories.ErrInUse):
		return services.NewDomainError(services.ErrorTypeConflict, "product is referenced by cart items", err)
	}
	return fmt.Errorf("failed to %s product: %w", op, err)
}
