package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the balance effect of a ledger entry.
type Kind string

// Supported ledger entry kinds.
const (
	KindDeposit     Kind = "DEPOSIT"
	KindWithdrawal  Kind = "WITHDRAWAL"
	KindTransferOut Kind = "TRANSFER_OUT"
	KindTransferIn  Kind = "TRANSFER_IN"
)

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID                    int64           `json:"id"`
	Kind                  Kind            `json:"kind"`
	AccountID             int64           `json:"account_id"`
	Amount                decimal.Decimal `json:"amount"` // negative for outflows
	CounterpartyAccountID *int64          `json:"counterparty_account_id,omitempty"`
	Description           string          `json:"description"`
	CreatedAt             time.Time       `json:"created_at"`
}

// CreateTransactionParams is the input data to append a ledger entry.
type CreateTransactionParams struct {
	Kind                  Kind
	AccountID             int64
	Amount                decimal.Decimal
	CounterpartyAccountID *int64
	Description           string
}

// ListTransactionsParams is the input data to page through the whole log.
type ListTransactionsParams struct {
	Limit  int32
	Offset int64
}
