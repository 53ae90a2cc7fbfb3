// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Number,
		&a.OwnerID,
		&a.Type,
		&a.Balance,
		&a.CreatedAt,
	)

	return a, err
}

// readErr maps a failed single-row read to a domain error.
func readErr(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrAccountNotFound
	case dbpkg.IsLockTimeout(err):
		return domain.ErrTimeout
	}

	return domain.ErrStoreUnavailable
}

const createQuery = `
INSERT INTO 
    accounts (number, owner_id, account_type)
VALUES
    ($1, $2, $3)
RETURNING id, number, owner_id, account_type, balance, created_at
`

// Create creates the account with zero balance and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, createQuery, arg.Number, arg.OwnerID, arg.AccountType()))
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		switch dbpkg.Constraint(err) {
		case "accounts_number_key":
			return a, domain.ErrAccountNumberExists
		case "accounts_account_type_check":
			return a, domain.ErrInvalidAccountType
		}

		return a, domain.ErrStoreUnavailable
	}

	return a, nil
}

const getQuery = `
SELECT 
	id, number, owner_id, account_type, balance, created_at 
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		l.Error().Err(err).Send()
		return a, readErr(err)
	}

	return a, nil
}

const getByNumberQuery = `
SELECT 
	id, number, owner_id, account_type, balance, created_at 
FROM accounts
WHERE number = $1
`

// GetByNumber returns the account with the given external number.
func (r *RepoPGS) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getByNumberQuery, number))
	if err != nil {
		l.Error().Err(err).Send()
		return a, readErr(err)
	}

	return a, nil
}

const getForUpdateQuery = `
SELECT 
	id, number, owner_id, account_type, balance, created_at 
FROM accounts
WHERE id = $1
FOR UPDATE
`

// GetForUpdate returns the account with the given id and locks its row until
// the enclosing transaction ends.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getForUpdateQuery, id))
	if err != nil {
		l.Error().Err(err).Send()
		return a, readErr(err)
	}

	return a, nil
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1
WHERE id = $2
RETURNING id, number, owner_id, account_type, balance, created_at
`

// AddBalance changes the account's balance and returns the changed account.
func (r *RepoPGS) AddBalance(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, addBalanceQuery, amount, id))
	if err != nil {
		l.Error().Err(err).Send()

		if dbpkg.Constraint(err) == "accounts_balance_check" {
			return a, domain.ErrInsufficientFunds
		}

		if dbpkg.IsOutOfRange(err) {
			return a, domain.ErrAmountOutOfRange
		}

		return a, readErr(err)
	}

	return a, nil
}

const listByOwnerQuery = `
SELECT 
	id, number, owner_id, account_type, balance, created_at 
FROM accounts
WHERE owner_id = $1
ORDER BY id
`

// ListByOwner returns the accounts of the given owner.
func (r *RepoPGS) ListByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByOwnerQuery, ownerID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, domain.ErrStoreUnavailable
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, domain.ErrStoreUnavailable
		}

		items = append(items, a)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, domain.ErrStoreUnavailable
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, domain.ErrStoreUnavailable
	}

	return items, nil
}
