package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upb/storefront-api/auth"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

// PasswordHasher hashes and verifies credentials
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenSigner issues bearer tokens
type TokenSigner interface {
	Sign(claims auth.Claims) (string, error)
}

// SignupInput is the payload for creating an account
type SignupInput struct {
	Name            string         `json:"name" validate:"required,min=2,max=100"`
	Email           string         `json:"email" validate:"required,email"`
	Phone           string         `json:"phone" validate:"required,min=7,max=20"`
	Password        string         `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string         `json:"confirmPassword" validate:"required"`
	Gender          *models.Gender `json:"gender,omitempty" validate:"omitempty,oneof=Male Female"`
}

// LoginInput is the payload for logging in
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordInput is the payload for changing a password
type ChangePasswordInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// EditProfileInput is the payload for editing profile fields. Role cannot be changed here.
type EditProfileInput struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required"`
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    *string        `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Gender   *models.Gender `json:"gender,omitempty" validate:"omitempty,oneof=Male Female"`
}

// AccountService handles signup, login and self-service credential changes
type AccountService struct {
	users  repositories.UserRepository
	hasher PasswordHasher
	tokens TokenSigner
	logger *zap.Logger
}

// NewAccountService creates a new AccountService instance
func NewAccountService(users repositories.UserRepository, hasher PasswordHasher, tokens TokenSigner, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Signup creates a Customer account and logs it in
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.UserInfo, error) {
	user, err := s.Register(ctx, in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.issue(user, "account created")
}

// Register creates a user with the given role. Emails are compared case-insensitively.
func (s *AccountService) Register(ctx context.Context, in SignupInput, role models.Role) (*models.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !role.Valid() {
		return nil, InvalidInput("unknown role").WithDetail("role", string(role))
	}

	email := normalizeEmail(in.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(strings.TrimSpace(in.Name), email, in.Phone, digest, in.Gender, role)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return user, nil
}

// Login verifies credentials and issues a token
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*models.UserInfo, error) {
	user, err := s.authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(user, "logged in")
}

// ChangePassword verifies the current password and stores a new one
func (s *AccountService) ChangePassword(ctx context.Context, in ChangePasswordInput) (*models.UserInfo, error) {
	if in.NewPassword != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	user, err := s.authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}
	user.Password = digest
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("password changed", zap.String("user_id", user.ID.String()))
	return s.issue(user, "password changed")
}

// EditProfile updates name, phone and gender after verifying the password
func (s *AccountService) EditProfile(ctx context.Context, in EditProfileInput) (*models.UserResponse, error) {
	user, err := s.authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Gender != nil {
		user.Gender = in.Gender
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user.Public(), nil
}

// authenticate returns the user owning email if password matches.
// Unknown emails and wrong passwords fail the same way.
func (s *AccountService) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if user == nil || !s.hasher.Verify(password, user.Password) {
		s.logger.Debug("credential check failed", zap.Bool("known_email", user != nil))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) issue(user *models.User, message string) (*models.UserInfo, error) {
	token, err := s.tokens.Sign(auth.ClaimsFor(user))
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}
	loggedIn := true
	return &models.UserInfo{
		ID:         user.ID,
		Name:       user.Name,
		Role:       user.Role,
		IsLoggedIn: &loggedIn,
		Token:      token,
		Message:    message,
	}, nil
}

// VerifyPassword reports whether password matches the user's stored digest
func (s *AccountService) VerifyPassword(user *models.User, password string) bool {
	return s.hasher.Verify(password, user.Password)
}

// HashPassword returns the digest for a new password
func (s *AccountService) HashPassword(password string) (string, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return "", WrapInternal("failed to hash password", err)
	}
	return digest, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
