package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleName is a named permission group attached to customers.
type RoleName = string

const (
	// RoleAdmin can manage every resource, including other customers.
	RoleAdmin RoleName = "ROLE_ADMIN"
	// RoleEditor can author and curate content.
	RoleEditor RoleName = "ROLE_EDITOR"
	// RoleUser is the default role assigned at registration.
	RoleUser RoleName = "ROLE_USER"
)

// Customer is the identity record backing authentication.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:cst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Enabled       bool       `bun:"enabled" json:"enabled"`
	Locked        bool       `bun:"locked" json:"locked,omitempty"`
	Roles         []*Role    `bun:"m2m:customers_roles,join:Customer=Role" json:"roles,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// FullName is the display name used in notifications.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// RoleNames returns the customer's role names.
func (c *Customer) RoleNames() []string {
	names := make([]string, 0, len(c.Roles))
	for _, r := range c.Roles {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	return names
}

// HasRole reports whether the customer carries the given role.
func (c *Customer) HasRole(name RoleName) bool {
	for _, r := range c.Roles {
		if r != nil && r.Name == name {
			return true
		}
	}
	return false
}

// Role is a named permission group; the set is seeded once at process
// start and read-only afterwards.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// CustomerRole is the customers<->roles join table.
type CustomerRole struct {
	bun.BaseModel `bun:"table:customers_roles,alias:cstrol"`
	CustomerID    uuid.UUID `bun:"customer_id,pk,type:uuid"`
	Customer      *Customer `bun:"rel:belongs-to,join:customer_id=id"`
	RoleID        uuid.UUID `bun:"role_id,pk,type:uuid"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id"`
}

// ActivationToken is a short-lived one-time code proving control of the
// registered email address. Deleted on successful redemption.
type ActivationToken struct {
	bun.BaseModel `bun:"table:activation_tokens,alias:act"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Code          string     `bun:"code,notnull,unique" json:"-"`
	CustomerID    uuid.UUID  `bun:"customer_id,notnull,type:uuid" json:"customer_id,omitempty"`
	Customer      *Customer  `bun:"rel:belongs-to,join:customer_id=id" json:"customer,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *ActivationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// DefaultRoles is the role set bootstrapped at process start.
func DefaultRoles() []*Role {
	return []*Role{
		{Name: RoleAdmin, Description: "Full administrative access"},
		{Name: RoleEditor, Description: "Author and curate content"},
		{Name: RoleUser, Description: "Default customer role"},
	}
}

// NormalizeEmail lowercases and trims an email so lookups and uniqueness
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
