package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
)

// Verdict is the outcome of a single stage
type Verdict int

const (
	// Continue passes the request to the next stage
	Continue Verdict = iota
	Allow
	Deny
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Request is everything a stage may look at
type Request struct {
	Route      RouteID
	Meta       RouteMetadata
	Principal  *models.Principal
	ResourceID string
}

// Stage is one step of the access pipeline. A Deny verdict carries the
// error describing why.
type Stage interface {
	Name() string
	Evaluate(ctx context.Context, req Request) (Verdict, error)
}

// OwnerLookup returns the id of the user owning a resource. found is false
// when the resource does not exist; uuid.Nil marks a resource no user owns
// yet, which any principal passing the role check may access.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, id uuid.UUID) (owner uuid.UUID, found bool, err error)
}

// Authentication denies non-public routes without a principal
type Authentication struct{}

func (Authentication) Name() string { return "authentication" }

func (Authentication) Evaluate(_ context.Context, req Request) (Verdict, error) {
	if !req.Meta.Public && req.Principal == nil {
		return Deny, services.ErrUnauthorized
	}
	return Continue, nil
}

// PublicExemption allows public routes without consulting later stages
type PublicExemption struct{}

func (PublicExemption) Name() string { return "public" }

func (PublicExemption) Evaluate(_ context.Context, req Request) (Verdict, error) {
	if req.Meta.Public {
		return Allow, nil
	}
	return Continue, nil
}

// RoleCheck requires the principal's role to be listed on the route.
// Routes without roles are denied.
type RoleCheck struct{}

func (RoleCheck) Name() string { return "role" }

func (RoleCheck) Evaluate(_ context.Context, req Request) (Verdict, error) {
	if len(req.Meta.AllowedRoles) == 0 {
		return Deny, services.ErrForbidden.WithDetail("reason", "route declares no roles")
	}
	if req.Principal == nil || !req.Meta.Allows(req.Principal.Role) {
		return Deny, services.ErrInsufficientPermissions
	}
	return Continue, nil
}

// OwnershipCheck allows Admins and the resource owner on ownership-sensitive routes
type OwnershipCheck struct {
	Owners map[ResourceKind]OwnerLookup
}

func (OwnershipCheck) Name() string { return "ownership" }

func (s OwnershipCheck) Evaluate(ctx context.Context, req Request) (Verdict, error) {
	rule := req.Meta.Ownership
	if rule == nil {
		return Continue, nil
	}
	if req.Principal == nil {
		return Deny, services.ErrUnauthorized
	}

	id, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return Deny, services.ErrInvalidID.WithDetail(rule.Param, req.ResourceID)
	}

	lookup, ok := s.Owners[rule.Resource]
	if !ok {
		return Deny, services.WrapInternal("ownership lookup failed", fmt.Errorf("no owner lookup for resource %q", rule.Resource))
	}

	owner, found, err := lookup.OwnerOf(ctx, id)
	if err != nil {
		return Deny, services.WrapInternal("ownership lookup failed", err)
	}
	if !found {
		return Deny, services.ErrResourceNotFound.WithDetail("resource", string(rule.Resource))
	}

	if owner == uuid.Nil || req.Principal.IsAdmin() || req.Principal.ID == owner {
		return Continue, nil
	}
	return Deny, services.ErrNotOwner
}
