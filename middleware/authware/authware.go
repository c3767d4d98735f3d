// Package authware provides the fiber request filter that resolves bearer
// tokens into request principals, plus route guards built on the access
// policy.
package authware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	auth "github.com/blogify/blogify-auth"
)

// DefaultContextKey is the fiber Locals key the principal is stored under.
const DefaultContextKey = "principal"

// DefaultAuthScheme is the expected Authorization header scheme.
const DefaultAuthScheme = "Bearer"

// Config configures the request filter.
type Config struct {
	// Skip short-circuits the filter for matching requests. Skipped
	// requests proceed anonymously.
	Skip func(*fiber.Ctx) bool
	// Tokens verifies bearer tokens. Required.
	Tokens auth.TokenService
	// Customers resolves token subjects to accounts. Required.
	Customers auth.CustomerFinder
	// ContextKey is the Locals key for the principal.
	ContextKey string
	// AuthScheme is the Authorization header scheme.
	AuthScheme string
	Logger     auth.Logger
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = DefaultAuthScheme
	}
	return cfg
}

// New builds the request filter. The filter never rejects a request by
// itself: it attaches a principal when the token checks out and passes
// the request along anonymously otherwise. Rejection is the guards' job.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		principal := cfg.resolve(c)
		if principal != nil {
			c.Locals(cfg.ContextKey, principal)
			ctx := auth.WithPrincipal(c.UserContext(), principal)
			ctx = auth.WithClaimsContext(ctx, principal.Claims)
			c.SetUserContext(ctx)
		}

		return c.Next()
	}
}

// resolve walks the same sequence on every request: read the subject off
// the unverified token, load the account, then verify the token against
// that account. Any miss leaves the request anonymous.
func (cfg Config) resolve(c *fiber.Ctx) *auth.Principal {
	tokenString, ok := extractToken(c, cfg.AuthScheme)
	if !ok {
		return nil
	}

	subject, err := cfg.Tokens.ExtractSubject(tokenString)
	if err != nil {
		cfg.debug(c, "token subject extraction failed", "error", err)
		return nil
	}

	customer, err := cfg.Customers.GetByEmail(c.UserContext(), subject)
	if err != nil {
		cfg.debug(c, "token for unknown account", "subject", subject)
		return nil
	}

	if !customer.Enabled || customer.Locked {
		cfg.debug(c, "token for inactive account", "subject", subject)
		return nil
	}

	claims, err := cfg.Tokens.Validate(tokenString)
	if err != nil {
		cfg.debug(c, "token rejected", "error", err)
		return nil
	}

	if claims.Subject() != customer.Email {
		cfg.debug(c, "token subject mismatch")
		return nil
	}

	return &auth.Principal{Customer: customer, Claims: claims}
}

func (cfg Config) debug(c *fiber.Ctx, msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Debug(msg, append(args, "path", c.Path())...)
	}
}

func extractToken(c *fiber.Ctx, scheme string) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// PrincipalFrom reads the principal the filter attached to the request.
func PrincipalFrom(c *fiber.Ctx, contextKey string) (*auth.Principal, bool) {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	principal, ok := c.Locals(contextKey).(*auth.Principal)
	return principal, ok && principal != nil
}

// SkipPublic builds a Skip func from the routes a policy declares public,
// sparing those requests the token and store work.
func SkipPublic(policy *auth.AccessPolicy) func(*fiber.Ctx) bool {
	return func(c *fiber.Ctx) bool {
		return policy.IsPublic(c.Method(), c.Path())
	}
}

// Guard enforces an access policy for every request it sees.
func Guard(policy *auth.AccessPolicy, config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFrom(c, cfg.ContextKey)
		if err := policy.Evaluate(c.Method(), c.Path(), principal); err != nil {
			return reject(c, err)
		}
		return c.Next()
	}
}

// RequireAny rejects requests whose principal carries none of the given
// roles. Missing principals get a 401, wrong roles a 403.
func RequireAny(roles ...auth.RoleName) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c, DefaultContextKey)
		if !ok {
			return reject(c, auth.ErrUnauthenticated)
		}
		if !principal.HasAnyRole(roles...) {
			return reject(c, auth.ErrForbidden)
		}
		return c.Next()
	}
}

func reject(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	message := err.Error()
	textCode := ""

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Code != 0 {
			status = int(richErr.Code)
		}
		message = richErr.Message
		textCode = richErr.TextCode
	}

	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"code":    textCode,
	})
}
