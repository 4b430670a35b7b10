package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/upb/storefront-api/internal/access"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// AuthTokenCookieName is the cookie set by the login and signup handlers.
// The Authorization header takes precedence when both are present.
const AuthTokenCookieName = "auth_token"

// IdentityResolver turns a raw bearer token into a principal
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.Principal, error)
}

// Decider evaluates the access pipeline for one request
type Decider interface {
	Decide(ctx context.Context, req access.Request) access.Decision
}

// ErrorWriter writes a domain error as an HTTP response
type ErrorWriter func(w http.ResponseWriter, err error)

// AccessMiddleware runs every request through the access pipeline before the
// route handler sees it
type AccessMiddleware struct {
	routes   access.RouteTable
	resolver IdentityResolver
	engine   Decider
	writeErr ErrorWriter
	logger   *zap.Logger
}

// NewAccessMiddleware creates a new AccessMiddleware. A nil writeErr falls
// back to writing the bare status for the error type.
func NewAccessMiddleware(routes access.RouteTable, resolver IdentityResolver, engine Decider, writeErr ErrorWriter, logger *zap.Logger) *AccessMiddleware {
	if writeErr == nil {
		writeErr = writeStatusOnly
	}
	return &AccessMiddleware{
		routes:   routes,
		resolver: resolver,
		engine:   engine,
		writeErr: writeErr,
		logger:   logger,
	}
}

// Authorize returns the middleware guarding the route identified by routeID.
// Routes missing from the table are denied.
func (m *AccessMiddleware) Authorize(routeID access.RouteID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			meta, ok := m.routes.Lookup(routeID)
			if !ok {
				m.logger.Error("route has no access metadata",
					zap.String("request_id", requestID),
					zap.String("route", string(routeID)))
				m.writeErr(w, services.ErrForbidden.WithDetail("route", string(routeID)))
				return
			}

			var principal *models.Principal
			var identityErr error
			if token := extractToken(r); token != "" {
				principal, identityErr = m.resolver.Resolve(ctx, token)
				if identityErr != nil {
					principal = nil
					m.logger.Debug("token rejected",
						zap.String("request_id", requestID),
						zap.Error(identityErr))
				}
			}

			req := access.Request{Route: routeID, Meta: meta, Principal: principal}
			if meta.Ownership != nil {
				req.ResourceID = chi.URLParam(r, meta.Ownership.Param)
			}

			d := m.engine.Decide(ctx, req)
			if !d.Allowed {
				err := d.Err
				// a rejected token explains an authentication denial better than "unauthorized"
				if identityErr != nil && errors.Is(err, services.ErrUnauthorized) {
					err = identityErr
				}
				fields := []zap.Field{
					zap.String("request_id", requestID),
					zap.String("route", string(routeID)),
					zap.String("stage", d.Stage),
					zap.Error(err),
				}
				if principal != nil {
					fields = append(fields, zap.String("user_id", principal.ID.String()))
				}
				if services.IsInternalError(err) {
					m.logger.Error("access check failed", fields...)
				} else {
					m.logger.Info("access denied", fields...)
				}
				m.writeErr(w, err)
				return
			}

			if principal != nil {
				ctx = WithPrincipal(ctx, principal)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeStatusOnly(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch services.GetErrorType(err) {
	case services.ErrorTypeUnauthorized:
		_ = utils.WriteUnauthorized(w, "")
		return
	case services.ErrorTypeForbidden:
		status = http.StatusForbidden
	case services.ErrorTypeNotFound:
		status = http.StatusNotFound
	case services.ErrorTypeValidation:
		status = http.StatusBadRequest
	}
	_ = utils.WriteError(w, status, "", nil)
}

// extractToken extracts the JWT from the Authorization header ("Bearer TOKEN")
// or the auth_token cookie
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(AuthTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
