package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	auth "github.com/blogify/blogify-auth"
)

type testConfig struct {
	signingKey    string
	issuer        string
	tokenTTL      int
	activationTTL int
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:    "test-signing-key-for-unit-tests",
		issuer:        "blogify-test",
		tokenTTL:      60,
		activationTTL: 15,
	}
}

func (c *testConfig) GetSigningKey() string        { return c.signingKey }
func (c *testConfig) GetIssuer() string            { return c.issuer }
func (c *testConfig) GetTokenExpiration() int      { return c.tokenTTL }
func (c *testConfig) GetActivationExpiration() int { return c.activationTTL }
func (c *testConfig) GetContextKey() string        { return "principal" }
func (c *testConfig) GetAuthScheme() string        { return "Bearer" }

// memStore keeps all fake repositories on one mutex so transactional
// scenarios behave like a single database.
type memStore struct {
	mu        sync.Mutex
	customers map[string]*auth.Customer
	roles     map[string]*auth.Role
	tokens    map[string]*auth.ActivationToken
}

func newMemStore() *memStore {
	return &memStore{
		customers: map[string]*auth.Customer{},
		roles:     map[string]*auth.Role{},
		tokens:    map[string]*auth.ActivationToken{},
	}
}

func (s *memStore) seedRoles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, role := range auth.DefaultRoles() {
		role.ID = uuid.New()
		s.roles[role.Name] = role
	}
}

type fakeCustomers struct {
	auth.Customers
	store *memStore
}

func (f *fakeCustomers) GetByEmail(ctx context.Context, email string) (*auth.Customer, error) {
	return f.GetByEmailTx(ctx, nil, email)
}

func (f *fakeCustomers) GetByEmailTx(_ context.Context, _ bun.IDB, email string) (*auth.Customer, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	customer, ok := f.store.customers[auth.NormalizeEmail(email)]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return customer, nil
}

func (f *fakeCustomers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return f.ExistsByEmailTx(ctx, nil, email)
}

func (f *fakeCustomers) ExistsByEmailTx(_ context.Context, _ bun.IDB, email string) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	_, ok := f.store.customers[auth.NormalizeEmail(email)]
	return ok, nil
}

func (f *fakeCustomers) CreateTx(_ context.Context, _ bun.IDB, record *auth.Customer, _ ...repository.InsertCriteria) (*auth.Customer, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	record.Email = auth.NormalizeEmail(record.Email)
	if _, ok := f.store.customers[record.Email]; ok {
		return nil, auth.ErrEmailTaken
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	f.store.customers[record.Email] = record
	return record, nil
}

func (f *fakeCustomers) AttachRoleTx(_ context.Context, _ bun.IDB, customer *auth.Customer, role *auth.Role) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	customer.Roles = append(customer.Roles, role)
	return nil
}

func (f *fakeCustomers) SetEnabledTx(_ context.Context, _ bun.IDB, id uuid.UUID, enabled bool) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, customer := range f.store.customers {
		if customer.ID == id {
			customer.Enabled = enabled
			return nil
		}
	}
	return repository.NewRecordNotFound()
}

type fakeRoles struct {
	auth.Roles
	store *memStore
}

func (f *fakeRoles) GetByName(ctx context.Context, name auth.RoleName) (*auth.Role, error) {
	return f.GetByNameTx(ctx, nil, name)
}

func (f *fakeRoles) GetByNameTx(_ context.Context, _ bun.IDB, name auth.RoleName) (*auth.Role, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	role, ok := f.store.roles[name]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return role, nil
}

func (f *fakeRoles) Seed(ctx context.Context) error {
	return f.SeedTx(ctx, nil)
}

func (f *fakeRoles) SeedTx(_ context.Context, _ bun.IDB) error {
	f.store.seedRoles()
	return nil
}

type fakeTokens struct {
	auth.ActivationTokens
	store *memStore
}

func (f *fakeTokens) GetByCode(ctx context.Context, code string) (*auth.ActivationToken, error) {
	return f.GetByCodeTx(ctx, nil, code)
}

func (f *fakeTokens) GetByCodeTx(_ context.Context, _ bun.IDB, code string) (*auth.ActivationToken, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	token, ok := f.store.tokens[code]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	for _, customer := range f.store.customers {
		if customer.ID == token.CustomerID {
			token.Customer = customer
			break
		}
	}

	return token, nil
}

func (f *fakeTokens) CreateTx(_ context.Context, _ bun.IDB, record *auth.ActivationToken, _ ...repository.InsertCriteria) (*auth.ActivationToken, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.store.tokens[record.Code] = record
	return record, nil
}

func (f *fakeTokens) DeleteByIDTx(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for code, token := range f.store.tokens {
		if token.ID == id {
			delete(f.store.tokens, code)
		}
	}
	return nil
}

func (f *fakeTokens) DeleteByCustomerTx(_ context.Context, _ bun.IDB, customerID uuid.UUID) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for code, token := range f.store.tokens {
		if token.CustomerID == customerID {
			delete(f.store.tokens, code)
		}
	}
	return nil
}

type fakeRepo struct {
	store     *memStore
	customers *fakeCustomers
	roles     *fakeRoles
	tokens    *fakeTokens
}

func newFakeRepo() *fakeRepo {
	store := newMemStore()
	return &fakeRepo{
		store:     store,
		customers: &fakeCustomers{store: store},
		roles:     &fakeRoles{store: store},
		tokens:    &fakeTokens{store: store},
	}
}

func (r *fakeRepo) Validate() error { return nil }
func (r *fakeRepo) MustValidate()   {}

func (r *fakeRepo) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (r *fakeRepo) Customers() auth.Customers               { return r.customers }
func (r *fakeRepo) Roles() auth.Roles                       { return r.roles }
func (r *fakeRepo) ActivationTokens() auth.ActivationTokens { return r.tokens }

// lastToken returns the single outstanding activation code for a customer.
func (r *fakeRepo) lastToken(customerID uuid.UUID) *auth.ActivationToken {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, token := range r.store.tokens {
		if token.CustomerID == customerID {
			return token
		}
	}
	return nil
}

// waitShort bounds how long tests wait for async email dispatch.
const waitShort = 2 * time.Second

// recordingNotifier captures outbound emails on a buffered channel so
// tests can wait for async dispatch.
type recordingNotifier struct {
	emails chan auth.Email
	fail   error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{emails: make(chan auth.Email, 10)}
}

func (n *recordingNotifier) Send(_ context.Context, email auth.Email) error {
	if n.fail != nil {
		return n.fail
	}
	n.emails <- email
	return nil
}

func (n *recordingNotifier) wait(timeout time.Duration) (auth.Email, bool) {
	select {
	case email := <-n.emails:
		return email, true
	case <-time.After(timeout):
		return auth.Email{}, false
	}
}
