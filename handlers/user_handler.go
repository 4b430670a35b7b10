package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services/user"
	"go.uber.org/zap"
)

// UserService defines the user management operations
type UserService interface {
	Create(ctx context.Context, in user.CreateUserInput) (*models.UserInfo, error)
	List(ctx context.Context) ([]*models.UserResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*models.UserResponse, error)
	GetCurrent(ctx context.Context, principal *models.Principal) (*models.UserResponse, error)
	Update(ctx context.Context, id uuid.UUID, in user.UpdateUserInput) (*models.UserResponse, error)
	Remove(ctx context.Context, id uuid.UUID) (*models.UserResponse, error)
	ChangeRole(ctx context.Context, in user.ChangeRoleInput, principal *models.Principal) (*models.UserResponse, error)
}

// UserHandler handles /users
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleCreateUser handles POST /users
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in user.CreateUserInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	info, err := h.users.Create(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user created",
		zap.String("request_id", requestID(r)),
		zap.String("user_id", info.ID.String()),
		zap.String("role", string(info.Role)))
	writeCreated(w, info, h.logger)
}

// HandleListUsers handles GET /users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, list, h.logger)
}

// HandleGetCurrentUser handles GET /users/current-user
func (h *UserHandler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetCurrent(r.Context(), middleware.PrincipalFromContext(r.Context()))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, u, h.logger)
}

// HandleChangeRole handles PATCH /users/change-role
func (h *UserHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	var in user.ChangeRoleInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	u, err := h.users.ChangeRole(r.Context(), in, middleware.PrincipalFromContext(r.Context()))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, u, h.logger)
}

// HandleGetUser handles GET /users/{id}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, u, h.logger)
}

// HandleUpdateUser handles PATCH /users/{id}
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	var in user.UpdateUserInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	u, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, u, h.logger)
}

// HandleDeleteUser handles DELETE /users/{id}
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	u, err := h.users.Remove(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user removed",
		zap.String("request_id", requestID(r)),
		zap.String("user_id", id.String()))
	writeOK(w, u, h.logger)
}
