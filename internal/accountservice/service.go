// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"errors"
	"strings"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/rs/zerolog"
)

// maxNumberAttempts bounds the retries on account number collisions.
const maxNumberAttempts = 5

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo      Repo
	newNumber func() string
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{
		repo:      ar,
		newNumber: randompkg.AccountNumber,
	}
}

// Create provisions an account of the given type with zero balance and a fresh
// external number for the given owner. An empty type means SAVINGS.
func (s *Service) Create(ctx context.Context, ownerID string, accountType domain.AccountType) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domain.Account{}, domain.ErrInvalidOwner
	}

	accountType = domain.AccountType(strings.ToUpper(strings.TrimSpace(string(accountType))))
	if accountType == "" {
		accountType = domain.AccountTypeSavings
	}

	if !accountType.Valid() {
		return domain.Account{}, domain.ErrInvalidAccountType
	}

	var err error

	for i := 0; i < maxNumberAttempts; i++ {
		var account domain.Account

		account, err = s.repo.Create(ctx, domain.CreateAccountParams{
			Number:  s.newNumber(),
			OwnerID: ownerID,
			Type:    accountType,
		})
		if err == nil {
			l.Info().Int64("account_id", account.ID).Str("owner_id", ownerID).Msg("account created")
			return account, nil
		}

		if !errors.Is(err, domain.ErrAccountNumberExists) {
			return domain.Account{}, err
		}

		l.Warn().Err(err).Int("attempt", i+1).Send()
	}

	return domain.Account{}, err
}

// ResolveByNumber returns the internal id of the account with the given external number.
func (s *Service) ResolveByNumber(ctx context.Context, number string) (int64, error) {
	account, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return 0, err
	}

	return account.ID, nil
}

// ListByOwner returns accounts that are owned by the given owner.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	accounts, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}
