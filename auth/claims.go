// Package auth signs and verifies bearer tokens and hashes credentials.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/storefront-api/models"
)

var (
	// ErrInvalidToken is returned when the token is malformed, badly signed or otherwise unusable
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims is the token payload: the caller's id, display name and role,
// plus the registered exp/iat/iss/sub claims.
type Claims struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ClaimsFor builds the payload for a user
func ClaimsFor(user *models.User) Claims {
	return Claims{
		ID:   user.ID.String(),
		Name: user.Name,
		Role: string(user.Role),
	}
}
