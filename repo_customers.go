package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Customers is the credential store surface the core depends on.
type Customers interface {
	repository.Repository[*Customer]

	GetByEmail(ctx context.Context, email string) (*Customer, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Customer, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	Create(ctx context.Context, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error)
	AttachRoleTx(ctx context.Context, tx bun.IDB, customer *Customer, role *Role) error
	SetEnabledTx(ctx context.Context, tx bun.IDB, id uuid.UUID, enabled bool) error
}

type customers struct {
	repository.Repository[*Customer]
	db *bun.DB
}

var _ Customers = (*customers)(nil)

// NewCustomersRepository builds the bun-backed credential store.
func NewCustomersRepository(db *bun.DB) Customers {
	repo := repository.NewRepository[*Customer](db, repository.ModelHandlers[*Customer]{
		NewRecord: func() *Customer { return &Customer{} },
		GetID: func(c *Customer) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Customer, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &customers{Repository: repo, db: db}
}

func (r *customers) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	return r.GetByEmailTx(ctx, r.db, email)
}

func (r *customers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Customer, error) {
	record := &Customer{}
	err := tx.NewSelect().
		Model(record).
		Relation("Roles").
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": NormalizeEmail(email)})
		}
		return nil, err
	}

	return record, nil
}

func (r *customers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.ExistsByEmailTx(ctx, r.db, email)
}

func (r *customers) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*Customer)(nil)).
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Exists(ctx)
}

func (r *customers) Create(ctx context.Context, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *customers) CreateTx(ctx context.Context, tx bun.IDB, record *Customer, criteria ...repository.InsertCriteria) (*Customer, error) {
	prepareCustomerDefaults(record)

	created, err := r.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *customers) AttachRoleTx(ctx context.Context, tx bun.IDB, customer *Customer, role *Role) error {
	if customer == nil || role == nil {
		return goerrors.New("customer and role are required", goerrors.CategoryInternal)
	}

	link := &CustomerRole{
		CustomerID: customer.ID,
		RoleID:     role.ID,
	}

	_, err := tx.NewInsert().
		Model(link).
		On("CONFLICT (customer_id, role_id) DO NOTHING").
		Exec(ctx)

	return err
}

func (r *customers) SetEnabledTx(ctx context.Context, tx bun.IDB, id uuid.UUID, enabled bool) error {
	now := time.Now()
	res, err := tx.NewUpdate().
		Model((*Customer)(nil)).
		Set("enabled = ?", enabled).
		Set("updated_at = ?", now).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func prepareCustomerDefaults(record *Customer) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		// Deterministic ids keep re-registrations of the same address from
		// churning identifiers across environments.
		if id, err := hashid.NewUUID(record.Email); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique violation")
}
