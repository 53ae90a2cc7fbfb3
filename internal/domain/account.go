// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountNumberExists indicates that the generated external number is already taken.
	ErrAccountNumberExists = errors.New("account number already exists")
	// ErrInvalidOwner indicates that the owner id is empty.
	ErrInvalidOwner = errors.New("invalid owner")
	// ErrInvalidAccountType indicates an unknown account type.
	ErrInvalidAccountType = fmt.Errorf("%w: unknown account type", ErrInvalidOperation)
)

// AccountType is the product kind of an account.
type AccountType string

// Account types.
const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeChecking
}

// Account holds the balance of a single ledger account.
//
// Number is the public identifier used to address transfers, ID is the internal key.
type Account struct {
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	OwnerID   string          `json:"owner_id"`
	Type      AccountType     `json:"account_type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateAccountParams is the input data for account provisioning.
type CreateAccountParams struct {
	Number  string
	OwnerID string
	Type    AccountType
}

// AccountType returns the requested type, SAVINGS when none is set.
func (arg CreateAccountParams) AccountType() AccountType {
	if arg.Type == "" {
		return AccountTypeSavings
	}

	return arg.Type
}
