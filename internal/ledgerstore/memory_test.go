package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, m *Memory, number, balance string) domain.Account {
	t.Helper()

	ctx := context.Background()

	a, err := m.Create(ctx, domain.CreateAccountParams{Number: number, OwnerID: "owner"})
	require.NoError(t, err)

	amount := decimal.RequireFromString(balance)
	if amount.IsZero() {
		return a
	}

	u, err := m.Begin(ctx)
	require.NoError(t, err)

	_, err = u.LockForUpdate(ctx, a.ID)
	require.NoError(t, err)

	a, err = u.ApplyBalanceDelta(ctx, a.ID, amount)
	require.NoError(t, err)

	_, err = u.AppendEntries(ctx, domain.CreateTransactionParams{
		Kind:        domain.KindDeposit,
		AccountID:   a.ID,
		Amount:      amount,
		Description: "Deposit",
	})
	require.NoError(t, err)
	require.NoError(t, u.Commit())

	return a
}

func TestCreate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, err := m.Create(ctx, domain.CreateAccountParams{Number: "0000000001", OwnerID: "alice"})
	require.NoError(t, err)
	require.NotZero(t, a.ID)
	require.True(t, a.Balance.IsZero())
	require.Equal(t, domain.AccountTypeSavings, a.Type)

	_, err = m.Create(ctx, domain.CreateAccountParams{Number: "0000000001", OwnerID: "bob"})
	require.ErrorIs(t, err, domain.ErrAccountNumberExists)

	_, err = m.Create(ctx, domain.CreateAccountParams{Number: "0000000002", OwnerID: "bob", Type: "BROKERAGE"})
	require.ErrorIs(t, err, domain.ErrInvalidAccountType)

	checking, err := m.Create(ctx, domain.CreateAccountParams{Number: "0000000003", OwnerID: "bob", Type: domain.AccountTypeChecking})
	require.NoError(t, err)
	require.Equal(t, domain.AccountTypeChecking, checking.Type)

	got, err := m.GetByNumber(ctx, "0000000001")
	require.NoError(t, err)
	require.Equal(t, a, got)

	_, err = m.Get(ctx, a.ID+1)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	owned, err := m.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, owned, 1)
}

func TestCommitPublishesAtomically(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedAccount(t, m, "1", "100")
	b := seedAccount(t, m, "2", "100")

	u, err := m.Begin(ctx)
	require.NoError(t, err)

	for _, id := range []int64{a.ID, b.ID} {
		_, err = u.LockForUpdate(ctx, id)
		require.NoError(t, err)
	}

	got, err := u.ApplyBalanceDelta(ctx, a.ID, decimal.NewFromInt(-40))
	require.NoError(t, err)
	require.Equal(t, "60", got.Balance.String())

	_, err = u.ApplyBalanceDelta(ctx, b.ID, decimal.NewFromInt(40))
	require.NoError(t, err)

	entries, err := u.AppendEntries(ctx,
		domain.CreateTransactionParams{Kind: domain.KindTransferOut, AccountID: a.ID, Amount: decimal.NewFromInt(-40)},
		domain.CreateTransactionParams{Kind: domain.KindTransferIn, AccountID: b.ID, Amount: decimal.NewFromInt(40)},
	)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Less(t, entries[0].ID, entries[1].ID)

	// Nothing is visible before commit.
	before, err := m.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "100", before.Balance.String())

	history, err := m.ListByAccount(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	require.NoError(t, u.Commit())

	after, err := m.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "60", after.Balance.String())

	history, err = m.ListByAccount(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, domain.KindTransferIn, history[0].Kind)
}

func TestAbortDiscards(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedAccount(t, m, "1", "100")

	u, err := m.Begin(ctx)
	require.NoError(t, err)

	_, err = u.LockForUpdate(ctx, a.ID)
	require.NoError(t, err)

	_, err = u.ApplyBalanceDelta(ctx, a.ID, decimal.NewFromInt(-100))
	require.NoError(t, err)

	_, err = u.AppendEntries(ctx, domain.CreateTransactionParams{
		Kind: domain.KindWithdrawal, AccountID: a.ID, Amount: decimal.NewFromInt(-100),
	})
	require.NoError(t, err)

	require.NoError(t, u.Abort())
	require.ErrorIs(t, u.Abort(), domain.ErrUnitDone)
	require.ErrorIs(t, u.Commit(), domain.ErrUnitDone)

	got, err := m.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "100", got.Balance.String())

	history, err := m.ListByAccount(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// The lock is released.
	lockCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	u2, err := m.Begin(lockCtx)
	require.NoError(t, err)

	_, err = u2.LockForUpdate(lockCtx, a.ID)
	require.NoError(t, err)
	require.NoError(t, u2.Abort())
}

func TestLockForUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedAccount(t, m, "1", "10")

	holder, err := m.Begin(ctx)
	require.NoError(t, err)

	_, err = holder.LockForUpdate(ctx, a.ID)
	require.NoError(t, err)

	t.Run("Reentrant", func(t *testing.T) {
		got, err := holder.LockForUpdate(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, a.ID, got.ID)
	})

	t.Run("Timeout", func(t *testing.T) {
		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		u, err := m.Begin(waitCtx)
		require.NoError(t, err)

		_, err = u.LockForUpdate(waitCtx, a.ID)
		require.ErrorIs(t, err, domain.ErrTimeout)
		require.NoError(t, u.Abort())
	})

	t.Run("NotFound", func(t *testing.T) {
		u, err := m.Begin(ctx)
		require.NoError(t, err)

		_, err = u.LockForUpdate(ctx, a.ID+100)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
		require.NoError(t, u.Abort())
	})

	t.Run("WaitsForRelease", func(t *testing.T) {
		acquired := make(chan error, 1)

		go func() {
			u, err := m.Begin(ctx)
			if err != nil {
				acquired <- err
				return
			}

			_, err = u.LockForUpdate(ctx, a.ID)
			if err == nil {
				err = u.Abort()
			}
			acquired <- err
		}()

		select {
		case err := <-acquired:
			t.Fatalf("lock acquired while held, err: %v", err)
		case <-time.After(20 * time.Millisecond):
		}

		require.NoError(t, holder.Abort())
		require.NoError(t, <-acquired)
	})
}

func TestApplyBalanceDelta(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedAccount(t, m, "1", "10")

	testCases := []struct {
		name    string
		lock    bool
		delta   string
		wantErr error
	}{
		{name: "NotLocked", lock: false, delta: "1", wantErr: domain.ErrInvalidOperation},
		{name: "NegativeBalance", lock: true, delta: "-10.01", wantErr: domain.ErrInsufficientFunds},
		{name: "ToZero", lock: true, delta: "-10"},
		{name: "TooManyDigits", lock: true, delta: "0.00001", wantErr: domain.ErrAmountOutOfRange},
		{name: "BalanceOutOfRange", lock: true, delta: "999999999999990", wantErr: domain.ErrAmountOutOfRange},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			u, err := m.Begin(ctx)
			require.NoError(t, err)
			defer func() { _ = u.Abort() }()

			if tc.lock {
				_, err = u.LockForUpdate(ctx, a.ID)
				require.NoError(t, err)
			}

			_, err = u.ApplyBalanceDelta(ctx, a.ID, decimal.RequireFromString(tc.delta))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestAppendEntriesRequiresLock(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedAccount(t, m, "1", "0")

	u, err := m.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = u.Abort() }()

	_, err = u.AppendEntries(ctx, domain.CreateTransactionParams{
		Kind: domain.KindDeposit, AccountID: a.ID, Amount: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = u.LockForUpdate(ctx, a.ID)
	require.NoError(t, err)

	_, err = u.AppendEntries(ctx, domain.CreateTransactionParams{
		Kind: domain.KindDeposit, AccountID: a.ID, Amount: decimal.Zero,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = u.AppendEntries(ctx, domain.CreateTransactionParams{
		Kind: domain.KindWithdrawal, AccountID: a.ID, Amount: decimal.RequireFromString("-0.123456"),
	})
	require.ErrorIs(t, err, domain.ErrAmountOutOfRange)
}

func TestBeginCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().Begin(ctx)
	require.True(t, errors.Is(err, domain.ErrTimeout))
}

func TestList(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 1; i <= 15; i++ {
		seedAccount(t, m, fmt.Sprint(i), "1")
	}

	testCases := []struct {
		name    string
		arg     domain.ListTransactionsParams
		wantIDs []int64
		wantErr error
	}{
		{name: "Limit5", arg: domain.ListTransactionsParams{Limit: 5}, wantIDs: []int64{15, 14, 13, 12, 11}},
		{name: "Limit5Offset12", arg: domain.ListTransactionsParams{Limit: 5, Offset: 12}, wantIDs: []int64{3, 2, 1}},
		{name: "OffsetPastEnd", arg: domain.ListTransactionsParams{Limit: 5, Offset: 100}, wantIDs: []int64{}},
		{name: "OffsetPastInt32", arg: domain.ListTransactionsParams{Limit: 100, Offset: 214748364600}, wantIDs: []int64{}},
		{name: "NegativeLimit", arg: domain.ListTransactionsParams{Limit: -1}, wantErr: domain.ErrInvalidOperation},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			got, err := m.List(ctx, tc.arg)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)

			ids := make([]int64, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}

			require.Equal(t, tc.wantIDs, ids)
		})
	}
}
