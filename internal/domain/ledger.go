package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds indicates that the account balance cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidOperation indicates a request the engine refuses to execute.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrInvalidOperation)
	// ErrAmountOutOfRange indicates an amount or resulting balance the ledger cannot store.
	ErrAmountOutOfRange = fmt.Errorf("%w: amount out of range", ErrInvalidOperation)
	// ErrSameAccount indicates a transfer to the source account itself.
	ErrSameAccount = fmt.Errorf("%w: cannot transfer to the same account", ErrInvalidOperation)
	// ErrTimeout indicates that an account lock was not acquired before the deadline.
	ErrTimeout = errors.New("lock wait timeout")
	// ErrStoreUnavailable indicates an underlying storage failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUnitDone indicates use of a unit of work that already committed or aborted.
	ErrUnitDone = errors.New("unit of work already finished")
)

// AmountScale is the number of fractional digits the ledger stores.
const AmountScale = 4

// MaxAmount is the smallest magnitude an amount or a balance cannot reach.
var MaxAmount = decimal.New(1, 15)

// CheckAmount returns nil if amount is positive and fits the stored precision and range.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if amount.GreaterThanOrEqual(MaxAmount) || !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrAmountOutOfRange
	}

	return nil
}

// BalanceResult is the result of a single-account balance operation.
type BalanceResult struct {
	Account     Account     `json:"account"`
	Transaction Transaction `json:"transaction"`
}

// TransferParams is the input data for the transfer operation.
type TransferParams struct {
	FromAccountID   int64
	ToAccountNumber string
	Amount          decimal.Decimal
}

// TransferResult is the result of the transfer operation.
type TransferResult struct {
	FromAccount Account     `json:"from_account"`
	ToAccount   Account     `json:"to_account"`
	OutEntry    Transaction `json:"out_entry"`
	InEntry     Transaction `json:"in_entry"`
}

// IsTransient reports whether the failed operation may be retried as a whole.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrStoreUnavailable)
}
