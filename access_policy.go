package auth

import (
	"strings"
)

// MethodAny matches every HTTP method in a policy rule.
const MethodAny = "*"

// Rule maps a method and path pattern to an access decision. Patterns are
// matched literally, except a trailing "/*" which matches the prefix and
// everything under it.
type Rule struct {
	Method  string
	Pattern string
	// Public routes skip authentication entirely.
	Public bool
	// Roles is the any-of set required on protected routes. Empty means
	// any authenticated principal.
	Roles []RoleName
}

// Matches reports whether the rule covers the given request line.
func (r Rule) Matches(method, path string) bool {
	if r.Method != MethodAny && !strings.EqualFold(r.Method, method) {
		return false
	}
	return matchPattern(r.Pattern, path)
}

// AccessPolicy is an ordered, immutable rule table. The first matching
// rule wins; requests matching no rule require authentication.
type AccessPolicy struct {
	rules []Rule
}

// NewAccessPolicy copies the given rules into a policy.
func NewAccessPolicy(rules ...Rule) *AccessPolicy {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &AccessPolicy{rules: copied}
}

// DefaultAccessPolicy opens the auth endpoints and API docs and protects
// everything else behind a valid token.
func DefaultAccessPolicy() *AccessPolicy {
	return NewAccessPolicy(
		Rule{Method: MethodAny, Pattern: "/auth/*", Public: true},
		Rule{Method: "GET", Pattern: "/v3/api-docs/*", Public: true},
		Rule{Method: "GET", Pattern: "/swagger-ui/*", Public: true},
		Rule{Method: "GET", Pattern: "/swagger-ui.html", Public: true},
	)
}

// IsPublic reports whether the request line is reachable without a token.
func (p *AccessPolicy) IsPublic(method, path string) bool {
	for _, rule := range p.rules {
		if rule.Matches(method, path) {
			return rule.Public
		}
	}
	return false
}

// Evaluate decides access for a request line. It returns nil when access
// is granted, ErrUnauthenticated when a token is required but missing,
// and ErrForbidden when the principal lacks every required role.
func (p *AccessPolicy) Evaluate(method, path string, principal *Principal) error {
	for _, rule := range p.rules {
		if !rule.Matches(method, path) {
			continue
		}

		if rule.Public {
			return nil
		}

		if principal == nil {
			return ErrUnauthenticated
		}

		if !principal.HasAnyRole(rule.Roles...) {
			return ErrForbidden
		}

		return nil
	}

	// Unlisted routes stay private.
	if principal == nil {
		return ErrUnauthenticated
	}

	return nil
}

func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}
