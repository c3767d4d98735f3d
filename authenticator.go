package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RegisterCustomerMessage carries a signup request.
type RegisterCustomerMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Validate enforces field constraints before any persistence happens.
func (m RegisterCustomerMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&m.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.LastName, validation.Required, validation.Length(1, 100)),
	)
}

// Auther implements the Authenticator interface against bun-backed stores.
type Auther struct {
	cfg          Config
	repo         RepositoryManager
	tokenService TokenService
	activation   ActivationService
	notifier     Notifier
	logger       Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	tokenService := NewTokenService(cfg, defLogger{})

	return &Auther{
		cfg:          cfg,
		repo:         repo,
		tokenService: tokenService,
		activation:   NewActivationService(cfg, repo, nil, defLogger{}),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithNotifier configures outbound email delivery. Without one, activation
// codes are only logged. The default activation service is rebuilt so
// expired-code replacements go through the same notifier.
func (s *Auther) WithNotifier(notifier Notifier) *Auther {
	s.notifier = notifier
	s.activation = NewActivationService(s.cfg, s.repo, notifier, s.logger)
	return s
}

// WithTokenService overrides the default token service.
func (s *Auther) WithTokenService(tokenService TokenService) *Auther {
	s.tokenService = tokenService
	return s
}

// WithActivationService overrides the default activation service.
func (s *Auther) WithActivationService(activation ActivationService) *Auther {
	s.activation = activation
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login authenticates an email/password pair and mints a bearer token.
// Unknown addresses and wrong passwords produce the same error so callers
// cannot enumerate accounts.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	customer, err := s.repo.Customers().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			s.logger.Debug("login for unknown email", "email", NormalizeEmail(email))
			return "", ErrMismatchedHashAndPassword
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if err := ComparePasswordAndHash(password, customer.PasswordHash); err != nil {
		s.logger.Debug("login rejected", "email", customer.Email)
		return "", err
	}

	if customer.Locked {
		return "", ErrAccountLocked
	}

	if !customer.Enabled {
		return "", ErrAccountDisabled
	}

	token, err := s.tokenService.Generate(customer)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	s.logger.Info("login succeeded", "email", customer.Email)

	return token, nil
}

// Register creates a disabled account with the default role and issues an
// activation code. The customer, role link, and code are persisted in one
// transaction; the email goes out only after it commits.
func (s *Auther) Register(ctx context.Context, msg RegisterCustomerMessage) error {
	if err := msg.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration").
			WithCode(goerrors.CodeBadRequest)
	}

	email := NormalizeEmail(msg.Email)

	hash, err := HashPassword(msg.Password)
	if err != nil {
		return err
	}

	var customer *Customer
	var token *ActivationToken

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := s.repo.Customers().ExistsByEmailTx(ctx, tx, email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		role, err := s.repo.Roles().GetByNameTx(ctx, tx, RoleUser)
		if err != nil {
			if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
				return ErrRolesNotSeeded
			}
			return err
		}

		customer, err = s.repo.Customers().CreateTx(ctx, tx, &Customer{
			Email:        email,
			PasswordHash: hash,
			FirstName:    msg.FirstName,
			LastName:     msg.LastName,
			Enabled:      false,
		})
		if err != nil {
			return err
		}

		if err := s.repo.Customers().AttachRoleTx(ctx, tx, customer, role); err != nil {
			return err
		}

		token, err = s.activation.IssueForTx(ctx, tx, customer)
		return err
	})

	if err != nil {
		return err
	}

	s.logger.Info("customer registered", "email", customer.Email)
	s.sendActivation(customer, token)

	return nil
}

// Activate redeems an activation code, enabling the account on success.
func (s *Auther) Activate(ctx context.Context, code string) error {
	_, err := s.activation.Redeem(ctx, code)
	return err
}

func (s *Auther) sendActivation(customer *Customer, token *ActivationToken) {
	if s.notifier == nil {
		s.logger.Warn("no notifier configured, activation code not delivered", "email", customer.Email)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := s.notifier.Send(ctx, Email{
			To:          customer.Email,
			DisplayName: customer.FullName(),
			Template:    TemplateActivateAccount,
			Code:        token.Code,
			Subject:     "Activate your account",
		})
		if err != nil {
			s.logger.Error("failed to send activation email", "email", customer.Email, "error", err)
		}
	}()
}
