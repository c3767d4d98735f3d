package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the read surface of a verified bearer token.
type AuthClaims interface {
	Subject() string
	FirstName() string
	LastName() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the signed payload of a bearer token. The subject is the
// customer email; role data is deliberately not embedded — the request
// filter resolves roles from the credential store on every request.
type JWTClaims struct {
	jwt.RegisteredClaims
	GivenName  string `json:"firstName,omitempty"`
	FamilyName string `json:"lastName,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim.
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// FirstName returns the firstName claim.
func (c *JWTClaims) FirstName() string {
	return c.GivenName
}

// LastName returns the lastName claim.
func (c *JWTClaims) LastName() string {
	return c.FamilyName
}

// Expires returns the expiration time.
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time.
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
