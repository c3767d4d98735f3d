package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes exposed to API clients alongside the HTTP status.
const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeAccountDisabled   = "ACCOUNT_DISABLED"
	TextCodeAccountLocked     = "ACCOUNT_LOCKED"
	TextCodeEmailTaken        = "EMAIL_TAKEN"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeActivationInvalid = "ACTIVATION_TOKEN_INVALID"
	TextCodeActivationExpired = "ACTIVATION_TOKEN_EXPIRED"
	TextCodeRolesNotSeeded    = "ROLES_NOT_SEEDED"
	TextCodeUnauthenticated   = "UNAUTHENTICATED"
	TextCodeForbidden         = "FORBIDDEN"
)

// ErrUnauthenticated is returned when a protected route is hit without a
// usable bearer token.
var ErrUnauthenticated = goerrors.New("full authentication is required to access this resource", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated principal lacks every
// role a route requires.
var ErrForbidden = goerrors.New("access denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrMismatchedHashAndPassword is returned when a password does not match
// its stored digest. Unknown-email lookups surface the same error so the
// two cases are indistinguishable to callers.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDisabled is returned when the account exists and the password
// matches but the account was never activated.
var ErrAccountDisabled = goerrors.New("account is not activated", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned for administratively locked accounts.
var ErrAccountLocked = goerrors.New("account is locked", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailTaken is returned when a registration collides with an existing
// account.
var ErrEmailTaken = goerrors.New("email is already connected with a different account", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrTokenExpired marks a bearer token past its expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed marks a bearer token that failed structural or
// signature checks. Deliberately generic so clients learn nothing about
// token internals.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidActivationToken marks an unknown or already consumed
// activation code.
var ErrInvalidActivationToken = goerrors.New("invalid activation token", goerrors.CategoryAuth).
	WithTextCode(TextCodeActivationInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrActivationTokenExpired marks an expired activation code. A fresh code
// has already been issued and sent when callers see this error.
var ErrActivationTokenExpired = goerrors.New("activation token expired, a new code has been sent", goerrors.CategoryAuth).
	WithTextCode(TextCodeActivationExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrRolesNotSeeded indicates the role bootstrap never ran. This is a
// deployment bug, not a user error, and fails loudly as a 500.
var ErrRolesNotSeeded = goerrors.New("roles were not initialized correctly", goerrors.CategoryInternal).
	WithTextCode(TextCodeRolesNotSeeded).
	WithCode(goerrors.CodeInternal)

// ErrCustomerNotFound is the error returned for missing customer records.
var ErrCustomerNotFound = goerrors.New("customer not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// IsTokenExpiredError will check for expired tokens, including errors
// bubbled up from the JWT library that were not wrapped by this package.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed-token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
