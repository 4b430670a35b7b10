package access

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/auth"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
)

// TokenVerifier verifies a signed token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Resolver turns a raw bearer token into the request's Principal
type Resolver struct {
	verifier TokenVerifier
}

// NewResolver creates a new identity resolver
func NewResolver(verifier TokenVerifier) *Resolver {
	return &Resolver{verifier: verifier}
}

// Resolve verifies token and extracts the Principal from its claims.
// All failures are unauthorized domain errors.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, services.ErrMissingToken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claims, err := r.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, services.ErrTokenExpired.Wrap(err)
		}
		return nil, services.ErrInvalidToken.Wrap(err)
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, services.ErrInvalidToken.WithDetail("claim", "id")
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return nil, services.ErrInvalidToken.WithDetail("claim", "role")
	}

	return &models.Principal{ID: id, Name: claims.Name, Role: role}, nil
}
