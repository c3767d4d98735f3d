package authware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/blogify/blogify-auth"
	"github.com/blogify/blogify-auth/middleware/authware"
)

type testConfig struct{}

func (testConfig) GetSigningKey() string        { return "authware-test-key" }
func (testConfig) GetIssuer() string            { return "blogify-test" }
func (testConfig) GetTokenExpiration() int      { return 60 }
func (testConfig) GetActivationExpiration() int { return 15 }
func (testConfig) GetContextKey() string        { return "principal" }
func (testConfig) GetAuthScheme() string        { return "Bearer" }

type stubFinder struct {
	customers map[string]*auth.Customer
}

func (s *stubFinder) GetByEmail(_ context.Context, email string) (*auth.Customer, error) {
	customer, ok := s.customers[auth.NormalizeEmail(email)]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return customer, nil
}

func activeCustomer() *auth.Customer {
	return &auth.Customer{
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Enabled:   true,
		Roles:     []*auth.Role{{Name: auth.RoleUser}},
	}
}

func newTestApp(t *testing.T, customers map[string]*auth.Customer) (*fiber.App, auth.TokenService) {
	t.Helper()

	tokens := auth.NewTokenService(testConfig{}, nil)
	finder := &stubFinder{customers: customers}

	app := fiber.New()
	app.Use(authware.New(authware.Config{
		Tokens:    tokens,
		Customers: finder,
	}))

	app.Get("/whoami", func(c *fiber.Ctx) error {
		principal, ok := authware.PrincipalFrom(c, "")
		if !ok {
			return c.Status(fiber.StatusUnauthorized).SendString("anonymous")
		}
		return c.SendString(principal.Email())
	})

	app.Get("/claims", func(c *fiber.Ctx) error {
		claims, ok := auth.GetClaims(c.UserContext())
		if !ok {
			return c.Status(fiber.StatusUnauthorized).SendString("anonymous")
		}
		return c.SendString(claims.Subject())
	})

	return app, tokens
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

func TestFilterAttachesPrincipal(t *testing.T) {
	customer := activeCustomer()
	app, tokens := newTestApp(t, map[string]*auth.Customer{customer.Email: customer})

	token, err := tokens.Generate(customer)
	require.NoError(t, err)

	res, err := app.Test(bearer(httptest.NewRequest("GET", "/whoami", nil), token))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	t.Run("claims ride the request context", func(t *testing.T) {
		res, err := app.Test(bearer(httptest.NewRequest("GET", "/claims", nil), token))
		require.NoError(t, err)
		defer res.Body.Close()

		require.Equal(t, http.StatusOK, res.StatusCode)

		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", string(body))
	})
}

func TestFilterAnonymousPaths(t *testing.T) {
	customer := activeCustomer()
	disabled := activeCustomer()
	disabled.Email = "pending@example.com"
	disabled.Enabled = false
	locked := activeCustomer()
	locked.Email = "locked@example.com"
	locked.Locked = true

	app, tokens := newTestApp(t, map[string]*auth.Customer{
		customer.Email: customer,
		disabled.Email: disabled,
		locked.Email:   locked,
	})

	valid, err := tokens.Generate(customer)
	require.NoError(t, err)

	ghost := activeCustomer()
	ghost.Email = "ghost@example.com"
	unknownAccount, err := tokens.Generate(ghost)
	require.NoError(t, err)

	pendingToken, err := tokens.Generate(disabled)
	require.NoError(t, err)

	lockedToken, err := tokens.Generate(locked)
	require.NoError(t, err)

	tests := []struct {
		name    string
		request func() *http.Request
	}{
		{"no header", func() *http.Request {
			return httptest.NewRequest("GET", "/whoami", nil)
		}},
		{"wrong scheme", func() *http.Request {
			req := httptest.NewRequest("GET", "/whoami", nil)
			req.Header.Set(fiber.HeaderAuthorization, "Basic dXNlcjpwYXNz")
			return req
		}},
		{"tampered token", func() *http.Request {
			return bearer(httptest.NewRequest("GET", "/whoami", nil), valid+"x")
		}},
		{"unknown account", func() *http.Request {
			return bearer(httptest.NewRequest("GET", "/whoami", nil), unknownAccount)
		}},
		{"disabled account", func() *http.Request {
			return bearer(httptest.NewRequest("GET", "/whoami", nil), pendingToken)
		}},
		{"locked account", func() *http.Request {
			return bearer(httptest.NewRequest("GET", "/whoami", nil), lockedToken)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := app.Test(tt.request())
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		})
	}
}

func TestGuard(t *testing.T) {
	customer := activeCustomer()
	admin := activeCustomer()
	admin.Email = "root@example.com"
	admin.Roles = []*auth.Role{{Name: auth.RoleAdmin}}

	tokens := auth.NewTokenService(testConfig{}, nil)
	finder := &stubFinder{customers: map[string]*auth.Customer{
		customer.Email: customer,
		admin.Email:    admin,
	}}

	policy := auth.NewAccessPolicy(
		auth.Rule{Method: auth.MethodAny, Pattern: "/auth/*", Public: true},
		auth.Rule{Method: auth.MethodAny, Pattern: "/admin/*", Roles: []auth.RoleName{auth.RoleAdmin}},
	)

	app := fiber.New()
	app.Use(authware.New(authware.Config{Tokens: tokens, Customers: finder}))
	app.Use(authware.Guard(policy))
	app.Post("/auth/login", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/admin/customers", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/posts", func(c *fiber.Ctx) error { return c.SendString("ok") })

	userToken, err := tokens.Generate(customer)
	require.NoError(t, err)
	adminToken, err := tokens.Generate(admin)
	require.NoError(t, err)

	t.Run("public route without token", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("POST", "/auth/login", nil))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("protected route without token", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("GET", "/posts", nil))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("protected route with token", func(t *testing.T) {
		res, err := app.Test(bearer(httptest.NewRequest("GET", "/posts", nil), userToken))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("admin route with the wrong role", func(t *testing.T) {
		res, err := app.Test(bearer(httptest.NewRequest("GET", "/admin/customers", nil), userToken))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("admin route with the admin role", func(t *testing.T) {
		res, err := app.Test(bearer(httptest.NewRequest("GET", "/admin/customers", nil), adminToken))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})
}

func TestRequireAny(t *testing.T) {
	customer := activeCustomer()
	tokens := auth.NewTokenService(testConfig{}, nil)
	finder := &stubFinder{customers: map[string]*auth.Customer{customer.Email: customer}}

	app := fiber.New()
	app.Use(authware.New(authware.Config{Tokens: tokens, Customers: finder}))
	app.Get("/editorial", authware.RequireAny(auth.RoleEditor, auth.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	token, err := tokens.Generate(customer)
	require.NoError(t, err)

	t.Run("missing principal is a 401", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("GET", "/editorial", nil))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("wrong role is a 403", func(t *testing.T) {
		res, err := app.Test(bearer(httptest.NewRequest("GET", "/editorial", nil), token))
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})
}
