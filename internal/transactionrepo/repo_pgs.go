// Package transactionrepo manages repository layer of ledger entries.
package transactionrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transaction RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

func scanTransaction(row interface{ Scan(...any) error }) (domain.Transaction, error) {
	var (
		t            domain.Transaction
		counterparty sql.NullInt64
	)

	err := row.Scan(
		&t.ID,
		&t.Kind,
		&t.AccountID,
		&t.Amount,
		&counterparty,
		&t.Description,
		&t.CreatedAt,
	)

	if counterparty.Valid {
		id := counterparty.Int64
		t.CounterpartyAccountID = &id
	}

	return t, err
}

const createQuery = `
INSERT INTO
    transactions (kind, account_id, amount, counterparty_account_id, description)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, kind, account_id, amount, counterparty_account_id, description, created_at
`

// Create appends the entry and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var counterparty sql.NullInt64
	if arg.CounterpartyAccountID != nil {
		counterparty = sql.NullInt64{Int64: *arg.CounterpartyAccountID, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Kind,
		arg.AccountID,
		arg.Amount,
		counterparty,
		arg.Description,
	)

	t, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		switch dbpkg.Constraint(err) {
		case
			"transactions_account_id_fkey",
			"transactions_counterparty_account_id_fkey":
			return t, domain.ErrAccountNotFound
		case
			"transactions_amount_check",
			"transactions_kind_check":
			return t, domain.ErrInvalidOperation
		}

		if dbpkg.IsOutOfRange(err) {
			return t, domain.ErrAmountOutOfRange
		}

		if dbpkg.IsLockTimeout(err) {
			return t, domain.ErrTimeout
		}

		return t, domain.ErrStoreUnavailable
	}

	return t, nil
}

const listByAccountQuery = `
SELECT id, kind, account_id, amount, counterparty_account_id, description, created_at
FROM transactions
WHERE account_id = $1
ORDER BY id DESC
`

// ListByAccount returns the entries of the given account, newest first.
func (r *RepoPGS) ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return r.list(ctx, listByAccountQuery, accountID)
}

const listQuery = `
SELECT id, kind, account_id, amount, counterparty_account_id, description, created_at
FROM transactions
ORDER BY id DESC
LIMIT $1 OFFSET $2
`

// List returns the specified page of the whole log, newest first.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.Transaction, error) {
	if arg.Limit < 0 || arg.Offset < 0 {
		return nil, domain.ErrInvalidOperation
	}

	return r.list(ctx, listQuery, arg.Limit, arg.Offset)
}

func (r *RepoPGS) list(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, domain.ErrStoreUnavailable
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, domain.ErrStoreUnavailable
		}

		items = append(items, t)
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
