// Package ledgerstore defines the unit-of-work contract of the ledger storage.
//
// A Unit is a bounded sequence of locked reads and writes that either commits
// or aborts as a whole. Readers outside the unit observe the complete pre-state
// until Commit returns and the complete post-state afterwards.
package ledgerstore

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Store starts units of work.
//
//go:generate mockgen -source store.go -destination store_mock.go -package ledgerstore
type Store interface {
	Begin(ctx context.Context) (Unit, error)
}

// Unit is a single atomic unit of work. It is not safe for concurrent use.
type Unit interface {
	// LockForUpdate blocks until the exclusive lock of the account is held by the
	// unit or ctx is done, and returns the account as the unit sees it.
	LockForUpdate(ctx context.Context, id int64) (domain.Account, error)
	// ApplyBalanceDelta changes the balance of an account locked by the unit.
	ApplyBalanceDelta(ctx context.Context, id int64, delta decimal.Decimal) (domain.Account, error)
	// AppendEntries stages ledger entries, they become visible on Commit.
	AppendEntries(ctx context.Context, entries ...domain.CreateTransactionParams) ([]domain.Transaction, error)
	// Commit publishes every staged change and releases the locks.
	Commit() error
	// Abort discards every staged change and releases the locks.
	Abort() error
}
