// Package ledgerrepo manages the repository layer of the balance ledger.
//
// Execute is the only writer of account balances. It runs the
// read-check-write sequence and the transaction append as one database
// transaction so that no partial state is ever observable.
package ledgerrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pocket-bank/internal/domain"
	"github.com/go-petr/pocket-bank/pkg/dbpkg"
	"github.com/go-petr/pocket-bank/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates ledger repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewRepoPGS returns ledger RepoPGS with a connection to start transactions.
func NewRepoPGS(conn *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   conn,
		conn: conn,
	}
}

// NewTxRepoPGS returns ledger RepoPGS bound to an already running transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const getAccountForUpdateQuery = `
SELECT id, owner, balance, created_at
FROM accounts
WHERE owner = $1
FOR UPDATE
`

const setBalanceQuery = `
UPDATE accounts
SET balance = $1
WHERE id = $2
RETURNING id, owner, balance, created_at
`

const appendTransactionQuery = `
INSERT INTO
    transactions (owner, type, amount, balance_after)
VALUES
    ($1, $2, $3, $4)
RETURNING id, owner, type, amount, balance_after, created_at
`

// Execute atomically applies a deposit or withdrawal to the owner's account
// and appends the matching transaction record.
//
// The account row is locked for the whole read-check-write sequence, so
// concurrent operations on the same account serialize while operations on
// different accounts proceed in parallel. On any error the database
// transaction is rolled back and no state changes.
func (r *RepoPGS) Execute(ctx context.Context, owner string, txType domain.TxType, amount string) (domain.TxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TxResult

	// A repo bound to an already running transaction cannot open its own.
	if r.conn == nil {
		l.Error().Msg("Execute called on a tx-bound repo")
		return result, errorspkg.ErrInternal
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	var a domain.Account

	row := tx.QueryRowContext(ctx, getAccountForUpdateQuery, owner)
	if err := row.Scan(&a.ID, &a.Owner, &a.Balance, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return result, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return result, errorspkg.ErrInternal
	}

	currentBalance, err := decimal.NewFromString(a.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		l.Error().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	var newBalance decimal.Decimal

	switch txType {
	case domain.TxTypeDeposit:
		newBalance = currentBalance.Add(amountDecimal)
	case domain.TxTypeWithdraw:
		if amountDecimal.GreaterThan(currentBalance) {
			return result, domain.ErrInsufficientBalance
		}

		newBalance = currentBalance.Sub(amountDecimal)
	default:
		return result, domain.ErrInvalidAmount
	}

	row = tx.QueryRowContext(ctx, setBalanceQuery, newBalance.StringFixed(2), a.ID)
	if err := row.Scan(&a.ID, &a.Owner, &a.Balance, &a.CreatedAt); err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "accounts_balance_check" {
				return result, domain.ErrInsufficientBalance
			}
		}

		return result, errorspkg.ErrInternal
	}

	var t domain.Transaction

	row = tx.QueryRowContext(ctx, appendTransactionQuery, owner, txType, amountDecimal.StringFixed(2), a.Balance)
	if err := row.Scan(&t.ID, &t.Owner, &t.Type, &t.Amount, &t.BalanceAfter, &t.CreatedAt); err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "transactions_amount_check" {
				return result, domain.ErrInvalidAmount
			}
		}

		return result, errorspkg.ErrInternal
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	result.Account = a
	result.Transaction = t

	return result, nil
}

const createAccountQuery = `
INSERT INTO
    accounts (owner, balance)
VALUES
    ($1, $2)
RETURNING id, owner, balance, created_at
`

// CreateAccount creates the zero balance account for the given owner.
// Each user has exactly one account, enforced by the owner unique constraint.
func (r *RepoPGS) CreateAccount(ctx context.Context, owner string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createAccountQuery, owner, "0.00")

	var a domain.Account

	err := row.Scan(&a.ID, &a.Owner, &a.Balance, &a.CreatedAt)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_owner_fkey":
				return a, domain.ErrOwnerNotFound
			case "accounts_owner_key":
				return a, domain.ErrAccountAlreadyExists
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getBalanceQuery = `
SELECT balance
FROM accounts
WHERE owner = $1
`

// GetBalance returns the current balance of the owner's account.
func (r *RepoPGS) GetBalance(ctx context.Context, owner string) (string, error) {
	l := zerolog.Ctx(ctx)

	var balance string

	err := r.db.QueryRowContext(ctx, getBalanceQuery, owner).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return "", errorspkg.ErrInternal
	}

	return balance, nil
}

const listTransactionsQuery = `
SELECT
	id, owner, type, amount, balance_after, created_at
FROM transactions
WHERE owner = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`

// ListTransactions returns the most recent transactions of the owner's
// account, newest first.
func (r *RepoPGS) ListTransactions(ctx context.Context, owner string, limit int32) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listTransactionsQuery, owner, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.Owner, &t.Type, &t.Amount, &t.BalanceAfter, &t.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
