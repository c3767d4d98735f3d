package auth

import (
	"context"
)

var principalCtxKey = &contextKey{"principal"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// Principal is the authenticated identity attached to a request. Roles are
// resolved from the store at filter time, not read from the token.
type Principal struct {
	Customer *Customer
	Claims   AuthClaims
}

// Email returns the principal's normalized email address.
func (p *Principal) Email() string {
	if p == nil || p.Customer == nil {
		return ""
	}
	return p.Customer.Email
}

// Roles returns the principal's role names.
func (p *Principal) Roles() []string {
	if p == nil || p.Customer == nil {
		return nil
	}
	return p.Customer.RoleNames()
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(name RoleName) bool {
	return p != nil && p.Customer != nil && p.Customer.HasRole(name)
}

// HasAnyRole reports whether the principal carries at least one of the
// given roles. An empty list matches any authenticated principal.
func (p *Principal) HasAnyRole(names ...RoleName) bool {
	if p == nil || p.Customer == nil {
		return false
	}
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if p.Customer.HasRole(name) {
			return true
		}
	}
	return false
}

// WithPrincipal sets the Principal in the given context
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, principal)
}

// PrincipalFromContext finds the principal from the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(*Principal)
	return raw, ok && raw != nil
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}
