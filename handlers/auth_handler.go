package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
	"go.uber.org/zap"
)

// AccountService defines the account operations exposed under /auth
type AccountService interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.UserInfo, error)
	Login(ctx context.Context, in services.LoginInput) (*models.UserInfo, error)
	ChangePassword(ctx context.Context, in services.ChangePasswordInput) (*models.UserInfo, error)
	EditProfile(ctx context.Context, in services.EditProfileInput) (*models.UserResponse, error)
}

// CookieConfig controls the auth_token cookie written on login and signup
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// AuthHandler handles the public account endpoints
type AuthHandler struct {
	accounts AccountService
	cookie   CookieConfig
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts AccountService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		cookie:   cookie,
		logger:   logger,
	}
}

// HandleSignup handles POST /auth/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	info, err := h.accounts.Signup(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("account created",
		zap.String("request_id", requestID(r)),
		zap.String("user_id", info.ID.String()))

	h.setTokenCookie(w, info.Token)
	writeCreated(w, info, h.logger)
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	info, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.setTokenCookie(w, info.Token)
	writeOK(w, info, h.logger)
}

// HandleChangePassword handles PATCH /auth/change-password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var in services.ChangePasswordInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	info, err := h.accounts.ChangePassword(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.setTokenCookie(w, info.Token)
	writeOK(w, info, h.logger)
}

// HandleEditProfile handles PATCH /auth/edit-profile
func (h *AuthHandler) HandleEditProfile(w http.ResponseWriter, r *http.Request) {
	var in services.EditProfileInput
	if !decode(w, r, &in, h.logger) {
		return
	}

	user, err := h.accounts.EditProfile(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, user, h.logger)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
