package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ActivationService issues and redeems the one-time codes that prove
// control of a registered email address.
type ActivationService interface {
	IssueForTx(ctx context.Context, tx bun.IDB, customer *Customer) (*ActivationToken, error)
	Redeem(ctx context.Context, code string) (*Customer, error)
}

// ActivationServiceImpl persists codes through the repository manager and
// hands fresh ones to the notifier when an expired code is redeemed.
type ActivationServiceImpl struct {
	repo     RepositoryManager
	notifier Notifier
	ttl      time.Duration
	logger   Logger
}

var _ ActivationService = (*ActivationServiceImpl)(nil)

// NewActivationService creates a new ActivationService. Code TTL comes
// from the injected Config.
func NewActivationService(cfg Config, repo RepositoryManager, notifier Notifier, logger Logger) *ActivationServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &ActivationServiceImpl{
		repo:     repo,
		notifier: notifier,
		ttl:      time.Duration(cfg.GetActivationExpiration()) * time.Minute,
		logger:   logger,
	}
}

// IssueForTx replaces any outstanding code for the customer with a fresh
// six digit one inside the caller's transaction.
func (s *ActivationServiceImpl) IssueForTx(ctx context.Context, tx bun.IDB, customer *Customer) (*ActivationToken, error) {
	code, err := generateActivationCode()
	if err != nil {
		return nil, err
	}

	if err := s.repo.ActivationTokens().DeleteByCustomerTx(ctx, tx, customer.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	token := &ActivationToken{
		Code:       code,
		CustomerID: customer.ID,
		CreatedAt:  &now,
		ExpiresAt:  now.Add(s.ttl),
	}

	return s.repo.ActivationTokens().CreateTx(ctx, tx, token)
}

// Redeem consumes a code. A valid code enables the account and is deleted
// in the same transaction. An expired code is replaced, the replacement is
// mailed out, and ErrActivationTokenExpired tells the caller to check
// their inbox again. Unknown codes are rejected without detail.
func (s *ActivationServiceImpl) Redeem(ctx context.Context, code string) (*Customer, error) {
	var customer *Customer
	var resend *ActivationToken
	var expiredErr error

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err := s.repo.ActivationTokens().GetByCodeTx(ctx, tx, code)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidActivationToken
			}
			return err
		}

		customer = token.Customer

		if token.Expired(time.Now()) {
			if customer == nil {
				return ErrInvalidActivationToken
			}
			// Commit the replacement even though redemption fails, so
			// the customer's inbox ends up with a working code.
			fresh, err := s.IssueForTx(ctx, tx, customer)
			if err != nil {
				return err
			}
			resend = fresh
			expiredErr = ErrActivationTokenExpired
			return nil
		}

		if err := s.repo.Customers().SetEnabledTx(ctx, tx, token.CustomerID, true); err != nil {
			return err
		}

		return s.repo.ActivationTokens().DeleteByIDTx(ctx, tx, token.ID)
	})

	if err != nil {
		return nil, err
	}

	if resend != nil && customer != nil {
		s.deliver(customer, resend)
	}

	if expiredErr != nil {
		return nil, expiredErr
	}

	customer.Enabled = true

	return customer, nil
}

func (s *ActivationServiceImpl) deliver(customer *Customer, token *ActivationToken) {
	if s.notifier == nil {
		s.logger.Warn("no notifier configured, dropping activation email", "email", customer.Email)
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

// generateActivationCode draws a uniformly random six digit code,
// zero padded.
func generateActivationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
