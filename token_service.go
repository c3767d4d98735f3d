package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface using HS256
// signed compact JWTs.
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration time.Duration
	issuer          string
	logger          Logger
}

// NewTokenService creates a new TokenService. The signing key and TTL come
// from the injected Config, keeping key rotation a single-point change.
func NewTokenService(cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:      []byte(cfg.GetSigningKey()),
		tokenExpiration: time.Duration(cfg.GetTokenExpiration()) * time.Minute,
		issuer:          cfg.GetIssuer(),
		logger:          logger,
	}
}

// Generate mints a bearer token for the customer: subject is the email,
// name claims ride along, expiry is issued-at plus the configured TTL.
func (ts *TokenServiceImpl) Generate(customer *Customer) (string, error) {
	if customer == nil {
		return "", goerrors.New("customer must not be nil", goerrors.CategoryInternal)
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   customer.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tokenExpiration)),
		},
		GivenName:  customer.FirstName,
		FamilyName: customer.LastName,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and verifies a token string: signature integrity and a
// hard expiry cutoff, no clock-skew leeway.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(goerrors.CodeUnauthorized)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("token validate could not decode claims")
	return nil, ErrTokenMalformed
}

// ExtractSubject reads the subject claim without verifying the token. The
// request filter uses it to look up the account before full verification;
// nothing read here may be trusted until IsValid passes.
func (ts *TokenServiceImpl) ExtractSubject(tokenString string) (string, error) {
	claims := &JWTClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return "", ErrTokenMalformed
	}

	if claims.Subject() == "" {
		return "", ErrTokenMalformed
	}

	return claims.Subject(), nil
}

// IsValid verifies signature, expiry, and that the subject matches the
// account the caller is about to authenticate as.
func (ts *TokenServiceImpl) IsValid(tokenString, expectedSubject string) bool {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject() == expectedSubject
}
