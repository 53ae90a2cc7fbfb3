// Package ledgerservice manages the balance-mutation engine of the ledger.
//
// Deposit, Withdraw and Transfer each run as one unit of work: locks are taken,
// funds are checked under the lock, balances change, entries are appended and
// the unit commits. Any failure aborts the unit and leaves no trace.
package ledgerservice

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountLookup resolves external account numbers to internal ids.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type AccountLookup interface {
	ResolveByNumber(ctx context.Context, number string) (int64, error)
}

// Service facilitates balance mutation logic.
type Service struct {
	store       ledgerstore.Store
	lookup      AccountLookup
	lockTimeout time.Duration
}

// New returns the balance engine.
//
// lockTimeout bounds every operation whose context carries no deadline; zero disables it.
func New(store ledgerstore.Store, lookup AccountLookup, lockTimeout time.Duration) *Service {
	return &Service{
		store:       store,
		lookup:      lookup,
		lockTimeout: lockTimeout,
	}
}

func (s *Service) withLockTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.lockTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, s.lockTimeout)
}

// inUnit runs fn inside a unit of work and commits it when fn succeeds.
func (s *Service) inUnit(ctx context.Context, fn func(u ledgerstore.Unit) error) error {
	l := zerolog.Ctx(ctx)

	u, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := u.Abort(); err != nil && !errors.Is(err, domain.ErrUnitDone) {
			l.Error().Err(err).Send()
		}
	}()

	if err := fn(u); err != nil {
		return err
	}

	return u.Commit()
}

// logOutcome logs declined business outcomes at info level and faults at error level.
func logOutcome(ctx context.Context, op string, err error) {
	l := zerolog.Ctx(ctx)

	switch {
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrAccountNotFound):
		l.Info().Err(err).Str("op", op).Msg("declined")
	default:
		l.Error().Err(err).Str("op", op).Msg("failed")
	}
}

// Deposit adds amount to the account balance.
func (s *Service) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.BalanceResult, error) {
	if err := domain.CheckAmount(amount); err != nil {
		logOutcome(ctx, "deposit", err)
		return domain.BalanceResult{}, err
	}

	ctx, cancel := s.withLockTimeout(ctx)
	defer cancel()

	var result domain.BalanceResult

	err := s.inUnit(ctx, func(u ledgerstore.Unit) error {
		if _, err := u.LockForUpdate(ctx, accountID); err != nil {
			return err
		}

		account, err := u.ApplyBalanceDelta(ctx, accountID, amount)
		if err != nil {
			return err
		}

		entries, err := u.AppendEntries(ctx, domain.CreateTransactionParams{
			Kind:        domain.KindDeposit,
			AccountID:   accountID,
			Amount:      amount,
			Description: "Deposit",
		})
		if err != nil {
			return err
		}

		result = domain.BalanceResult{Account: account, Transaction: entries[0]}

		return nil
	})
	if err != nil {
		logOutcome(ctx, "deposit", err)
		return domain.BalanceResult{}, err
	}

	return result, nil
}

// Withdraw subtracts amount from the account balance if it is sufficient.
func (s *Service) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (domain.BalanceResult, error) {
	if err := domain.CheckAmount(amount); err != nil {
		logOutcome(ctx, "withdraw", err)
		return domain.BalanceResult{}, err
	}

	ctx, cancel := s.withLockTimeout(ctx)
	defer cancel()

	var result domain.BalanceResult

	err := s.inUnit(ctx, func(u ledgerstore.Unit) error {
		current, err := u.LockForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		if current.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		account, err := u.ApplyBalanceDelta(ctx, accountID, amount.Neg())
		if err != nil {
			return err
		}

		entries, err := u.AppendEntries(ctx, domain.CreateTransactionParams{
			Kind:        domain.KindWithdrawal,
			AccountID:   accountID,
			Amount:      amount.Neg(),
			Description: "Withdrawal",
		})
		if err != nil {
			return err
		}

		result = domain.BalanceResult{Account: account, Transaction: entries[0]}

		return nil
	})
	if err != nil {
		logOutcome(ctx, "withdraw", err)
		return domain.BalanceResult{}, err
	}

	return result, nil
}

// Transfer moves amount from the source account to the account with the given number.
func (s *Service) Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error) {
	if err := domain.CheckAmount(arg.Amount); err != nil {
		logOutcome(ctx, "transfer", err)
		return domain.TransferResult{}, err
	}

	// The lookup is advisory and runs before any lock is taken.
	toID, err := s.lookup.ResolveByNumber(ctx, arg.ToAccountNumber)
	if err != nil {
		logOutcome(ctx, "transfer", err)
		return domain.TransferResult{}, err
	}

	if toID == arg.FromAccountID {
		logOutcome(ctx, "transfer", domain.ErrSameAccount)
		return domain.TransferResult{}, domain.ErrSameAccount
	}

	ctx, cancel := s.withLockTimeout(ctx)
	defer cancel()

	var result domain.TransferResult

	err = s.inUnit(ctx, func(u ledgerstore.Unit) error {
		locked, err := lockInOrder(ctx, u, arg.FromAccountID, toID)
		if err != nil {
			return err
		}

		from, to := locked[arg.FromAccountID], locked[toID]

		if from.Balance.LessThan(arg.Amount) {
			return domain.ErrInsufficientFunds
		}

		result.FromAccount, err = u.ApplyBalanceDelta(ctx, from.ID, arg.Amount.Neg())
		if err != nil {
			return err
		}

		result.ToAccount, err = u.ApplyBalanceDelta(ctx, to.ID, arg.Amount)
		if err != nil {
			return err
		}

		entries, err := u.AppendEntries(ctx,
			domain.CreateTransactionParams{
				Kind:                  domain.KindTransferOut,
				AccountID:             from.ID,
				Amount:                arg.Amount.Neg(),
				CounterpartyAccountID: &to.ID,
				Description:           "Transfer to " + to.Number,
			},
			domain.CreateTransactionParams{
				Kind:                  domain.KindTransferIn,
				AccountID:             to.ID,
				Amount:                arg.Amount,
				CounterpartyAccountID: &from.ID,
				Description:           "Transfer from " + from.Number,
			},
		)
		if err != nil {
			return err
		}

		result.OutEntry, result.InEntry = entries[0], entries[1]

		return nil
	})
	if err != nil {
		logOutcome(ctx, "transfer", err)
		return domain.TransferResult{}, err
	}

	return result, nil
}

// lockInOrder locks the accounts in ascending id order so that two units
// touching the same accounts can never wait on each other in a cycle.
func lockInOrder(ctx context.Context, u ledgerstore.Unit, ids ...int64) (map[int64]domain.Account, error) {
	ordered := make([]int64, len(ids))
	copy(ordered, ids)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	locked := make(map[int64]domain.Account, len(ordered))

	for _, id := range ordered {
		a, err := u.LockForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}

		locked[id] = a
	}

	return locked, nil
}
