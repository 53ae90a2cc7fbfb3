package integrationtest

import (
	"context"
	"testing"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/transactionrepo"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/shopspring/decimal"
)

// SeedAccount creates an Account with a random number and zero balance.
func SeedAccount(t *testing.T, db dbpkg.SQLInterface, ownerID string) domain.Account {
	t.Helper()

	accountRepo := accountrepo.NewRepoPGS(db)

	arg := domain.CreateAccountParams{
		Number:  randompkg.AccountNumber(),
		OwnerID: ownerID,
	}

	account, err := accountRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return account
}

// SeedAccountWithBalance creates an Account funded by a single deposit entry.
func SeedAccountWithBalance(t *testing.T, db dbpkg.SQLInterface, balance string) domain.Account {
	t.Helper()

	account := SeedAccount(t, db, randompkg.Owner())
	amount := decimal.RequireFromString(balance)

	account, err := accountrepo.NewRepoPGS(db).AddBalance(context.Background(), account.ID, amount)
	if err != nil {
		t.Fatalf("accountRepo.AddBalance(context.Background(), %v, %v) returned error: %v",
			account.ID, amount, err)
	}

	SeedTransaction(t, db, domain.CreateTransactionParams{
		Kind:        domain.KindDeposit,
		AccountID:   account.ID,
		Amount:      amount,
		Description: "Deposit",
	})

	return account
}

// SeedTransaction appends a ledger entry without touching balances.
func SeedTransaction(t *testing.T, db dbpkg.SQLInterface, arg domain.CreateTransactionParams) domain.Transaction {
	t.Helper()

	entry, err := transactionrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("transactionRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return entry
}
