package queryservice

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func randomAccount(id int64) domain.Account {
	return domain.Account{
		ID:        id,
		Number:    randompkg.AccountNumber(),
		OwnerID:   randompkg.Owner(),
		Balance:   randompkg.MoneyAmountBetween(1, 1000),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

func randomDeposit(id, accountID int64) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Kind:        domain.KindDeposit,
		AccountID:   accountID,
		Amount:      randompkg.MoneyAmountBetween(1, 100),
		Description: "Deposit",
		CreatedAt:   time.Now().Truncate(time.Second).UTC(),
	}
}

func TestGetAccount(t *testing.T) {
	account := randomAccount(1)

	testCases := []struct {
		name       string
		buildStubs func(ar *MockAccountRepo)
		wantErr    error
	}{
		{
			name: "OK",
			buildStubs: func(ar *MockAccountRepo) {
				ar.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(account, nil)
			},
		},
		{
			name: "NotFound",
			buildStubs: func(ar *MockAccountRepo) {
				ar.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			ar := NewMockAccountRepo(ctrl)
			tc.buildStubs(ar)

			s := New(ar, NewMockTransactionRepo(ctrl))

			got, err := s.GetAccount(context.Background(), account.ID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Empty(t, got)
				return
			}

			require.NoError(t, err)
			require.Equal(t, account, got)
		})
	}
}

func TestListTransactions(t *testing.T) {
	account := randomAccount(1)
	transactions := []domain.Transaction{
		randomDeposit(2, account.ID),
		randomDeposit(1, account.ID),
	}

	testCases := []struct {
		name       string
		buildStubs func(ar *MockAccountRepo, tr *MockTransactionRepo)
		want       []domain.Transaction
		wantErr    error
	}{
		{
			name: "OK",
			buildStubs: func(ar *MockAccountRepo, tr *MockTransactionRepo) {
				ar.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(account, nil)
				tr.EXPECT().ListByAccount(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(transactions, nil)
			},
			want: transactions,
		},
		{
			name: "Empty",
			buildStubs: func(ar *MockAccountRepo, tr *MockTransactionRepo) {
				ar.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(account, nil)
				tr.EXPECT().ListByAccount(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return([]domain.Transaction{}, nil)
			},
			want: []domain.Transaction{},
		},
		{
			name: "AccountNotFound",
			buildStubs: func(ar *MockAccountRepo, tr *MockTransactionRepo) {
				ar.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(domain.Account{}, domain.ErrAccountNotFound)
				tr.EXPECT().ListByAccount(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "StoreUnavailable",
			buildStubs: func(ar *MockAccountRepo, tr *MockTransactionRepo) {
				ar.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(account, nil)
				tr.EXPECT().ListByAccount(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(nil, domain.ErrStoreUnavailable)
			},
			wantErr: domain.ErrStoreUnavailable,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			ar := NewMockAccountRepo(ctrl)
			tr := NewMockTransactionRepo(ctrl)
			tc.buildStubs(ar, tr)

			got, err := New(ar, tr).ListTransactions(context.Background(), account.ID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestListAll(t *testing.T) {
	transactions := []domain.Transaction{
		randomDeposit(3, 1),
		randomDeposit(2, 2),
	}

	testCases := []struct {
		name       string
		pageSize   int32
		pageID     int32
		buildStubs func(tr *MockTransactionRepo)
		wantEmpty  bool
		wantErr    error
	}{
		{
			name:     "FirstPage",
			pageSize: 2,
			pageID:   1,
			buildStubs: func(tr *MockTransactionRepo) {
				tr.EXPECT().
					List(gomock.Any(), gomock.Eq(domain.ListTransactionsParams{Limit: 2, Offset: 0})).
					Times(1).
					Return(transactions, nil)
			},
		},
		{
			name:     "ThirdPage",
			pageSize: 5,
			pageID:   3,
			buildStubs: func(tr *MockTransactionRepo) {
				tr.EXPECT().
					List(gomock.Any(), gomock.Eq(domain.ListTransactionsParams{Limit: 5, Offset: 10})).
					Times(1).
					Return(transactions, nil)
			},
		},
		{
			name:     "LastPageID",
			pageSize: 100,
			pageID:   math.MaxInt32,
			buildStubs: func(tr *MockTransactionRepo) {
				tr.EXPECT().
					List(gomock.Any(), gomock.Eq(domain.ListTransactionsParams{Limit: 100, Offset: 214748364600})).
					Times(1).
					Return([]domain.Transaction{}, nil)
			},
			wantEmpty: true,
		},
		{
			name:     "InvalidPageID",
			pageSize: 5,
			pageID:   0,
			buildStubs: func(tr *MockTransactionRepo) {
				tr.EXPECT().List(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidOperation,
		},
		{
			name:     "InvalidPageSize",
			pageSize: 0,
			pageID:   1,
			buildStubs: func(tr *MockTransactionRepo) {
				tr.EXPECT().List(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidOperation,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			tr := NewMockTransactionRepo(ctrl)
			tc.buildStubs(tr)

			got, err := New(NewMockAccountRepo(ctrl), tr).ListAll(context.Background(), tc.pageSize, tc.pageID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)

			if tc.wantEmpty {
				require.Empty(t, got)
				return
			}

			require.Equal(t, transactions, got)
			require.True(t, got[0].Amount.GreaterThan(decimal.Zero))
		})
	}
}
