package auth

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivationTokens stores the single-use account activation codes.
type ActivationTokens interface {
	repository.Repository[*ActivationToken]

	GetByCode(ctx context.Context, code string) (*ActivationToken, error)
	GetByCodeTx(ctx context.Context, tx bun.IDB, code string) (*ActivationToken, error)
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	DeleteByCustomerTx(ctx context.Context, tx bun.IDB, customerID uuid.UUID) error
}

type activationTokens struct {
	repository.Repository[*ActivationToken]
	db *bun.DB
}

var _ ActivationTokens = (*activationTokens)(nil)

func NewActivationTokensRepository(db *bun.DB) ActivationTokens {
	repo := repository.NewRepository[*ActivationToken](db, repository.ModelHandlers[*ActivationToken]{
		NewRecord: func() *ActivationToken { return &ActivationToken{} },
		GetID: func(t *ActivationToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *ActivationToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "code"
		},
	})

	return &activationTokens{Repository: repo, db: db}
}

func (r *activationTokens) GetByCode(ctx context.Context, code string) (*ActivationToken, error) {
	return r.GetByCodeTx(ctx, r.db, code)
}

func (r *activationTokens) GetByCodeTx(ctx context.Context, tx bun.IDB, code string) (*ActivationToken, error) {
	record := &ActivationToken{}
	err := tx.NewSelect().
		Model(record).
		Relation("Customer").
		Where("?TableAlias.code = ?", code).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (r *activationTokens) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*ActivationToken)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}

func (r *activationTokens) DeleteByCustomerTx(ctx context.Context, tx bun.IDB, customerID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*ActivationToken)(nil)).
		Where("?TableAlias.customer_id = ?", customerID).
		Exec(ctx)
	return err
}
