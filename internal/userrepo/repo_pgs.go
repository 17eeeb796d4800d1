// Package userrepo manages repository layer of users.
package userrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pocket-bank/internal/domain"
	"github.com/go-petr/pocket-bank/internal/ledgerrepo"
	"github.com/go-petr/pocket-bank/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates user repository layer logic.
type RepoPGS struct {
	conn *sql.DB
}

// NewRepoPGS returns user RepoPGS.
func NewRepoPGS(conn *sql.DB) *RepoPGS {
	return &RepoPGS{
		conn: conn,
	}
}

const createQuery = `
INSERT INTO users (
    username,
    hashed_password,
    email,
    phone
) VALUES (
    $1, $2, $3, $4
) RETURNING username, hashed_password, email, phone, password_changed_at, created_at
`

// Create creates the user together with their zero balance account and
// returns the user. Both rows are inserted in one database transaction so
// a user without an account is never observable.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	var u domain.User

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return u, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	row := tx.QueryRowContext(ctx, createQuery,
		arg.Username,
		arg.HashedPassword,
		arg.Email,
		arg.Phone,
	)

	err = row.Scan(
		&u.Username,
		&u.HashedPassword,
		&u.Email,
		&u.Phone,
		&u.PasswordChangedAt,
		&u.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				switch pqErr.Constraint {
				case "users_pkey":
					return domain.User{}, domain.ErrUsernameAlreadyExists
				case "users_email_key":
					return domain.User{}, domain.ErrEmailAlreadyExists
				}
			}
		}

		return domain.User{}, errorspkg.ErrInternal
	}

	ledgerRepo := ledgerrepo.NewTxRepoPGS(tx)

	if _, err := ledgerRepo.CreateAccount(ctx, u.Username); err != nil {
		l.Error().Err(err).Send()
		return domain.User{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.User{}, errorspkg.ErrInternal
	}

	return u, nil
}

const getQuery = `
SELECT
	username,
	hashed_password,
	email,
	phone,
	password_changed_at,
	created_at
FROM users
WHERE username = $1
`

// Get returns the user with the given username.
func (r *RepoPGS) Get(ctx context.Context, username string) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	row := r.conn.QueryRowContext(ctx, getQuery, username)

	var u domain.User

	err := row.Scan(
		&u.Username,
		&u.HashedPassword,
		&u.Email,
		&u.Phone,
		&u.PasswordChangedAt,
		&u.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return u, domain.ErrUserNotFound
		}

		l.Error().Err(err).Send()

		return u, errorspkg.ErrInternal
	}

	return u, nil
}
