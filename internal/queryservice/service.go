// Package queryservice manages read-only views of accounts and the ledger log.
package queryservice

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
)

//go:generate mockgen -source service.go -destination service_mock.go -package queryservice

// AccountRepo provides account reads needed by the query service.
type AccountRepo interface {
	Get(ctx context.Context, id int64) (domain.Account, error)
}

// TransactionRepo provides ledger reads needed by the query service.
type TransactionRepo interface {
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.Transaction, error)
}

// Service facilitates query service layer logic.
type Service struct {
	accounts     AccountRepo
	transactions TransactionRepo
}

// New returns query service.
func New(ar AccountRepo, tr TransactionRepo) *Service {
	return &Service{
		accounts:     ar,
		transactions: tr,
	}
}

// GetAccount returns the committed state of the account with the given id.
func (s *Service) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return account, err
	}

	return account, nil
}

// ListTransactions returns the ledger entries of the given account, newest first.
func (s *Service) ListTransactions(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}

	transactions, err := s.transactions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// ListAll returns the specified page of the whole ledger log, newest first.
func (s *Service) ListAll(ctx context.Context, pageSize, pageID int32) ([]domain.Transaction, error) {
	if pageSize < 1 || pageID < 1 {
		return nil, domain.ErrInvalidOperation
	}

	transactions, err := s.transactions.List(ctx, domain.ListTransactionsParams{
		Limit:  pageSize,
		Offset: int64(pageID-1) * int64(pageSize),
	})
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
