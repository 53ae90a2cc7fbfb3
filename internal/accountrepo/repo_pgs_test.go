//go:build integration

package accountrepo_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.CreateLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

var cmpOpts = []cmp.Option{
	cmpopts.IgnoreFields(domain.Account{}, "ID"),
	cmpopts.EquateApproxTime(time.Second),
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
}

func TestCreate(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)

	arg := domain.CreateAccountParams{
		Number:  randompkg.AccountNumber(),
		OwnerID: randompkg.Owner(),
	}

	got, err := repo.Create(ctx, arg)
	require.NoError(t, err)

	want := domain.Account{
		Number:    arg.Number,
		OwnerID:   arg.OwnerID,
		Type:      domain.AccountTypeSavings,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}

	if diff := cmp.Diff(want, got, cmpOpts...); diff != "" {
		t.Errorf("repo.Create(ctx, %+v) returned unexpected difference (-want +got):\n%s", arg, diff)
	}

	require.NotZero(t, got.ID)

	_, err = repo.Create(ctx, arg)
	require.ErrorIs(t, err, domain.ErrAccountNumberExists)
}

func TestCreateAccountType(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)

	got, err := repo.Create(ctx, domain.CreateAccountParams{
		Number:  randompkg.AccountNumber(),
		OwnerID: randompkg.Owner(),
		Type:    domain.AccountTypeChecking,
	})
	require.NoError(t, err)
	require.Equal(t, domain.AccountTypeChecking, got.Type)

	// The check constraint aborts the transaction, so this runs last.
	_, err = repo.Create(ctx, domain.CreateAccountParams{
		Number:  randompkg.AccountNumber(),
		OwnerID: randompkg.Owner(),
		Type:    "BROKERAGE",
	})
	require.ErrorIs(t, err, domain.ErrInvalidAccountType)
}

func TestGet(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)

	want := integrationtest.SeedAccount(t, tx, randompkg.Owner())

	got, err := repo.Get(ctx, want.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpOpts...); diff != "" {
		t.Errorf("repo.Get(ctx, %v) returned unexpected difference (-want +got):\n%s", want.ID, diff)
	}

	got, err = repo.GetByNumber(ctx, want.Number)
	require.NoError(t, err)
	require.Equal(t, want.ID, got.ID)

	_, err = repo.Get(ctx, want.ID+1000)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = repo.GetByNumber(ctx, "0000000000")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAddBalance(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)

	account := integrationtest.SeedAccount(t, tx, randompkg.Owner())

	got, err := repo.GetForUpdate(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.IsZero())

	got, err = repo.AddBalance(ctx, account.ID, decimal.RequireFromString("10.25"))
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("10.25")))

	got, err = repo.AddBalance(ctx, account.ID, decimal.RequireFromString("-10.25"))
	require.NoError(t, err)
	require.True(t, got.Balance.IsZero())
}

func TestAddBalanceBelowZero(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)

	account := integrationtest.SeedAccount(t, tx, randompkg.Owner())

	// The check constraint aborts the transaction, so this runs last.
	_, err := repo.AddBalance(ctx, account.ID, decimal.RequireFromString("-0.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestAddBalanceOutOfRange(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)

	account := integrationtest.SeedAccount(t, tx, randompkg.Owner())

	_, err := repo.AddBalance(ctx, account.ID, decimal.RequireFromString("100000000000000000000"))
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
	require.False(t, domain.IsTransient(err))
}

func TestListByOwner(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := accountrepo.NewRepoPGS(tx)

	ownerID := randompkg.Owner()

	n := 3
	want := make([]domain.Account, n)

	for i := 0; i < n; i++ {
		want[i] = integrationtest.SeedAccount(t, tx, ownerID)
	}

	integrationtest.SeedAccount(t, tx, randompkg.Owner())

	got, err := repo.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, got, n)

	for i := range want {
		require.Equal(t, want[i].ID, got[i].ID)
	}
}
