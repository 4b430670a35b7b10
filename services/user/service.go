// Package user implements administrative user management.
package user

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

// CreateUserInput is the payload for an admin creating a user. Role defaults to Customer.
type CreateUserInput struct {
	services.SignupInput
	Role models.Role `json:"role,omitempty" validate:"omitempty,oneof=Admin Customer"`
}

// UpdateUserInput is the payload for updating a user. ID must match the path
// and Password must be the user's current password.
type UpdateUserInput struct {
	ID       uuid.UUID      `json:"id" validate:"required"`
	Password string         `json:"password" validate:"required"`
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    *string        `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Gender   *models.Gender `json:"gender,omitempty" validate:"omitempty,oneof=Male Female"`
}

// ChangeRoleInput is the payload for changing a user's role
type ChangeRoleInput struct {
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role" validate:"required,oneof=Admin Customer"`
}

// Service handles user management
type Service struct {
	users    repositories.UserRepository
	orders   repositories.OrderRepository
	items    repositories.CartItemRepository
	accounts *services.AccountService
	txMgr    repositories.TransactionManager
	logger   *zap.Logger
}

// NewService creates a new user service
func NewService(repos *repositories.Repositories, accounts *services.AccountService, txMgr repositories.TransactionManager, logger *zap.Logger) *Service {
	return &Service{
		users:    repos.Users,
		orders:   repos.Orders,
		items:    repos.CartItems,
		accounts: accounts,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// Create registers a user on behalf of an admin and returns a token for it
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*models.UserInfo, error) {
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}

	user, err := s.accounts.Register(ctx, in.SignupInput, role)
	if err != nil {
		return nil, err
	}
	return &models.UserInfo{
		ID:      user.ID,
		Name:    user.Name,
		Role:    user.Role,
		Message: "user created",
	}, nil
}

// List returns every user
func (s *Service) List(ctx context.Context) ([]*models.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Get returns a user by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.UserResponse, error) {
	u, err := s.find(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// GetCurrent returns the caller's own account
func (s *Service) GetCurrent(ctx context.Context, principal *models.Principal) (*models.UserResponse, error) {
	if principal == nil {
		return nil, services.ErrUnauthorized
	}
	return s.Get(ctx, principal.ID)
}

// Update edits profile fields after checking the current password
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.UserResponse, error) {
	if id != in.ID {
		return nil, services.ErrIDMismatch
	}

	u, err := s.find(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	if !s.accounts.VerifyPassword(u, in.Password) {
		return nil, services.ErrInvalidCredentials
	}

	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Gender != nil {
		u.Gender = in.Gender
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u.Public(), nil
}

// Remove deletes a user together with their orders and the orders' line items
func (s *Service) Remove(ctx context.Context, id uuid.UUID) (*models.UserResponse, error) {
	removed, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.User, error) {
		users := s.users.WithTx(tx)
		orders := s.orders.WithTx(tx)
		items := s.items.WithTx(tx)

		u, err := s.find(ctx, users, id)
		if err != nil {
			return nil, err
		}

		owned, err := orders.ListByUserID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}
		for _, o := range owned {
			if _, err := items.DeleteByOrderID(ctx, o.ID); err != nil {
				return nil, fmt.Errorf("failed to delete cart items: %w", err)
			}
			if err := orders.Delete(ctx, o.ID); err != nil {
				return nil, fmt.Errorf("failed to delete order: %w", err)
			}
		}

		if err := users.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to delete user: %w", err)
		}

		s.logger.Info("user removed",
			zap.String("user_id", id.String()),
			zap.Int("orders", len(owned)))
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return removed.Public(), nil
}

// ChangeRole sets the role of the user identified by email. Only admins may call it.
func (s *Service) ChangeRole(ctx context.Context, in ChangeRoleInput, principal *models.Principal) (*models.UserResponse, error) {
	if !principal.IsAdmin() {
		return nil, services.ErrInsufficientPermissions
	}
	if !in.Role.Valid() {
		return nil, services.InvalidInput("unknown role").WithDetail("role", string(in.Role))
	}

	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if u == nil {
		return nil, services.ErrUserNotFound
	}

	previous := u.Role
	u.Role = in.Role
	u.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user role changed",
		zap.String("user_id", u.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(u.Role)),
		zap.String("changed_by", principal.ID.String()))

	return u.Public(), nil
}

func (s *Service) find(ctx context.Context, users repositories.UserRepository, id uuid.UUID) (*models.User, error) {
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, services.ErrUserNotFound
	}
	return u, nil
}
