package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Customers() Customers
	Roles() Roles
	ActivationTokens() ActivationTokens
}

type mngr struct {
	db               *bun.DB
	customers        Customers
	roles            Roles
	activationTokens ActivationTokens
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:               db,
		customers:        NewCustomersRepository(db),
		roles:            NewRolesRepository(db),
		activationTokens: NewActivationTokensRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.customers == nil {
		return errors.New("repository customers should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	if m.activationTokens == nil {
		return errors.New("repository activationTokens should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Customers() Customers {
	return m.customers
}

func (m mngr) Roles() Roles {
	return m.roles
}

func (m mngr) ActivationTokens() ActivationTokens {
	return m.activationTokens
}
