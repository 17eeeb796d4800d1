// Package ledgerservice manages the business logic layer of the balance ledger.
package ledgerservice

import (
	"context"

	"github.com/go-petr/pocket-bank/internal/domain"
	"github.com/go-petr/pocket-bank/pkg/configpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultTransactionsLimit is used when the caller does not specify one.
const DefaultTransactionsLimit = 50

// Repo provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Execute(ctx context.Context, owner string, txType domain.TxType, amount string) (domain.TxResult, error)
	GetBalance(ctx context.Context, owner string) (string, error)
	ListTransactions(ctx context.Context, owner string, limit int32) ([]domain.Transaction, error)
}

// Publisher emits an event for every committed transaction.
type Publisher interface {
	Publish(ctx context.Context, t domain.Transaction) error
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo           Repo
	publisher      Publisher
	depositCeiling decimal.Decimal
}

// New returns a ledger service with the deposit ceiling parsed from config.
func New(lr Repo, pub Publisher, config configpkg.Config) (*Service, error) {
	ceiling, err := decimal.NewFromString(config.DepositCeiling)
	if err != nil {
		return nil, err
	}

	return &Service{
		repo:           lr,
		publisher:      pub,
		depositCeiling: ceiling,
	}, nil
}

// validAmount parses the amount and rejects non-positive values and
// values with more than 2 fractional digits.
func validAmount(ctx context.Context, amount string) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return amountDecimal, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return amountDecimal, domain.ErrInvalidAmount
	}

	if amountDecimal.Exponent() < -2 {
		return amountDecimal, domain.ErrInvalidAmount
	}

	return amountDecimal, nil
}

func (s *Service) publish(ctx context.Context, t domain.Transaction) {
	l := zerolog.Ctx(ctx)

	// The operation is already committed. A publish failure must not
	// surface to the caller.
	if err := s.publisher.Publish(ctx, t); err != nil {
		l.Warn().Err(err).Int64("transaction_id", t.ID).Msg("publish transaction event")
	}
}

// Deposit validates the amount and atomically adds it to the owner's balance.
func (s *Service) Deposit(ctx context.Context, owner, amount string) (domain.TxResult, error) {
	amountDecimal, err := validAmount(ctx, amount)
	if err != nil {
		return domain.TxResult{}, err
	}

	if amountDecimal.GreaterThan(s.depositCeiling) {
		return domain.TxResult{}, domain.ErrInvalidAmount
	}

	result, err := s.repo.Execute(ctx, owner, domain.TxTypeDeposit, amount)
	if err != nil {
		return result, err
	}

	s.publish(ctx, result.Transaction)

	return result, nil
}

// Withdraw validates the amount and atomically subtracts it from the owner's
// balance. Withdrawals are bounded by the balance only, there is no
// per-operation ceiling.
func (s *Service) Withdraw(ctx context.Context, owner, amount string) (domain.TxResult, error) {
	if _, err := validAmount(ctx, amount); err != nil {
		return domain.TxResult{}, err
	}

	result, err := s.repo.Execute(ctx, owner, domain.TxTypeWithdraw, amount)
	if err != nil {
		return result, err
	}

	s.publish(ctx, result.Transaction)

	return result, nil
}

// GetBalance returns the current balance of the owner's account.
func (s *Service) GetBalance(ctx context.Context, owner string) (string, error) {
	return s.repo.GetBalance(ctx, owner)
}

// ListTransactions returns the most recent transactions of the owner,
// newest first.
func (s *Service) ListTransactions(ctx context.Context, owner string, limit int32) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = DefaultTransactionsLimit
	}

	return s.repo.ListTransactions(ctx, owner, limit)
}
