package auth

import (
	"context"
	"fmt"
)

// Logger is the logging surface used across the package. Messages carry
// alternating key/value args.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options. The signing key and TTLs live behind a single
// injection point so tests can swap in throwaway values.
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	// GetTokenExpiration is the bearer token TTL in minutes.
	GetTokenExpiration() int
	// GetActivationExpiration is the activation code TTL in minutes.
	GetActivationExpiration() int
	GetContextKey() string
	GetAuthScheme() string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, msg RegisterCustomerMessage) error
	Activate(ctx context.Context, code string) error
}

// TokenService signs and verifies bearer tokens.
type TokenService interface {
	Generate(customer *Customer) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	ExtractSubject(tokenString string) (string, error)
	IsValid(tokenString, expectedSubject string) bool
}

// CustomerFinder is the narrow lookup surface the request filter needs.
type CustomerFinder interface {
	GetByEmail(ctx context.Context, email string) (*Customer, error)
}

// Notifier delivers account emails. Dispatch is fire-and-forget from the
// core's perspective; failures are logged, never surfaced to the caller.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}

// Email is the outbound notification payload.
type Email struct {
	To          string
	DisplayName string
	Template    TemplateName
	Code        string
	Subject     string
}

// TemplateName identifies an email template.
type TemplateName string

// TemplateActivateAccount is the account activation email.
const TemplateActivateAccount TemplateName = "activate_account"

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args...) }
func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args...) }

func (d defLogger) print(level, msg string, args ...any) {
	out := "[" + level + "] AUTH " + msg
	for i := 0; i+1 < len(args); i += 2 {
		out += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	fmt.Println(out)
}
