// Package ledgerrepo manages the Postgres unit of work of the ledger.
package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/go-petr/pet-ledger/internal/transactionrepo"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS starts ledger units of work as Postgres transactions.
type RepoPGS struct {
	conn *sql.DB
}

// NewRepoPGS returns ledger RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		conn: db,
	}
}

// Begin starts a database transaction wrapped as a ledger unit of work.
//
// Row locks taken by the unit are released by Commit or Abort, or by the
// driver when ctx is canceled.
func (r *RepoPGS) Begin(ctx context.Context) (ledgerstore.Unit, error) {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()

		if dbpkg.IsLockTimeout(err) {
			return nil, domain.ErrTimeout
		}

		return nil, domain.ErrStoreUnavailable
	}

	u := &unitPGS{
		tx:           tx,
		accounts:     accountrepo.NewRepoPGS(tx),
		transactions: transactionrepo.NewRepoPGS(tx),
		locked:       make(map[int64]bool),
	}

	return u, nil
}

type unitPGS struct {
	tx           *sql.Tx
	accounts     *accountrepo.RepoPGS
	transactions *transactionrepo.RepoPGS
	locked       map[int64]bool
	done         bool
}

const setLockTimeoutQuery = `SELECT set_config('lock_timeout', $1, true)`

// limitLockWait bounds the next lock wait of the transaction by the deadline of ctx.
func (u *unitPGS) limitLockWait(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}

	wait := time.Until(deadline)
	if wait <= 0 {
		return domain.ErrTimeout
	}

	// lock_timeout of 0 disables the limit.
	ms := wait.Milliseconds()
	if ms < 1 {
		ms = 1
	}

	if _, err := u.tx.ExecContext(ctx, setLockTimeoutQuery, fmt.Sprintf("%dms", ms)); err != nil {
		if dbpkg.IsLockTimeout(err) {
			return domain.ErrTimeout
		}

		return domain.ErrStoreUnavailable
	}

	return nil
}

func (u *unitPGS) LockForUpdate(ctx context.Context, id int64) (domain.Account, error) {
	if u.done {
		return domain.Account{}, domain.ErrUnitDone
	}

	if err := u.limitLockWait(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("account_id", id).Send()
		return domain.Account{}, err
	}

	a, err := u.accounts.GetForUpdate(ctx, id)
	if err != nil {
		return a, err
	}

	u.locked[id] = true

	return a, nil
}

func (u *unitPGS) ApplyBalanceDelta(ctx context.Context, id int64, delta decimal.Decimal) (domain.Account, error) {
	if u.done {
		return domain.Account{}, domain.ErrUnitDone
	}

	if !u.locked[id] {
		return domain.Account{}, fmt.Errorf("%w: account %d is not locked", domain.ErrInvalidOperation, id)
	}

	// numeric(19,4) would round the extra digits away.
	if !delta.Equal(delta.Truncate(domain.AmountScale)) {
		return domain.Account{}, domain.ErrAmountOutOfRange
	}

	return u.accounts.AddBalance(ctx, id, delta)
}

func (u *unitPGS) AppendEntries(ctx context.Context, entries ...domain.CreateTransactionParams) ([]domain.Transaction, error) {
	if u.done {
		return nil, domain.ErrUnitDone
	}

	items := make([]domain.Transaction, 0, len(entries))

	for _, e := range entries {
		if !u.locked[e.AccountID] {
			return nil, fmt.Errorf("%w: account %d is not locked", domain.ErrInvalidOperation, e.AccountID)
		}

		t, err := u.transactions.Create(ctx, e)
		if err != nil {
			return nil, err
		}

		items = append(items, t)
	}

	return items, nil
}

func (u *unitPGS) Commit() error {
	if u.done {
		return domain.ErrUnitDone
	}

	u.done = true

	if err := u.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) || dbpkg.IsLockTimeout(err) {
			// database/sql already rolled back because the context is done.
			return domain.ErrTimeout
		}

		return fmt.Errorf("%w: commit: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

func (u *unitPGS) Abort() error {
	if u.done {
		return domain.ErrUnitDone
	}

	u.done = true

	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: rollback: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}
