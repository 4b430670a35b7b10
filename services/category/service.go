// Package category implements product category management.
package category

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"github.com/upb/storefront-api/services"
	"go.uber.org/zap"
)

// CategoryInput is the payload for creating or renaming a category
type CategoryInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// Service handles categories
type Service struct {
	categories repositories.CategoryRepository
	logger     *zap.Logger
}

// NewService creates a new category service
func NewService(categories repositories.CategoryRepository, logger *zap.Logger) *Service {
	return &Service{categories: categories, logger: logger}
}

// Create adds a category
func (s *Service) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	c := models.NewCategory(strings.TrimSpace(in.Name))
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicate.WithDetail("name", c.Name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.logger.Info("category created", zap.String("category_id", c.ID.String()))
	return c, nil
}

// List returns every category
func (s *Service) List(ctx context.Context) ([]*models.Category, error) {
	all, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if all == nil {
		all = []*models.Category{}
	}
	return all, nil
}

// Get returns a category by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if c == nil {
		return nil, services.ErrCategoryNotFound
	}
	return c, nil
}

// Update renames a category
func (s *Service) Update(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.UpdatedAt = time.Now().UTC()

	if err := s.categories.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, services.ErrCategoryNotFound
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, services.ErrDuplicate.WithDetail("name", c.Name)
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return c, nil
}

// Remove deletes a category that no product references
func (s *Service) Remove(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, services.ErrCategoryNotFound
		case errors.Is(err, repositories.ErrInUse):
			return nil, services.NewDomainError(services.ErrorTypeConflict, "category still has products", err)
		}
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}
	s.logger.Info("category removed", zap.String("category_id", id.String()))
	return c, nil
}
