package ledgerstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Memory is an in-process ledger store.
//
// It implements Store together with the account and transaction read methods
// the services need, so a single Memory can back the whole application.
type Memory struct {
	mu       sync.RWMutex
	accounts map[int64]*memAccount
	byNumber map[string]int64
	log      []domain.Transaction

	lastAccountID int64
	lastEntryID   atomic.Int64

	now func() time.Time
}

type memAccount struct {
	account domain.Account // committed state, guarded by Memory.mu
	lock    chan struct{}
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[int64]*memAccount),
		byNumber: make(map[string]int64),
		now:      time.Now,
	}
}

// Create provisions an account with zero balance.
func (m *Memory) Create(_ context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	accountType := arg.AccountType()
	if !accountType.Valid() {
		return domain.Account{}, domain.ErrInvalidAccountType
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byNumber[arg.Number]; ok {
		return domain.Account{}, domain.ErrAccountNumberExists
	}

	m.lastAccountID++

	a := domain.Account{
		ID:        m.lastAccountID,
		Number:    arg.Number,
		OwnerID:   arg.OwnerID,
		Type:      accountType,
		Balance:   decimal.Zero,
		CreatedAt: m.now().UTC(),
	}

	m.accounts[a.ID] = &memAccount{account: a, lock: make(chan struct{}, 1)}
	m.byNumber[a.Number] = a.ID

	return a, nil
}

// Get returns the committed state of the account with the given id.
func (m *Memory) Get(_ context.Context, id int64) (domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return row.account, nil
}

// GetByNumber returns the committed state of the account with the given external number.
func (m *Memory) GetByNumber(_ context.Context, number string) (domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byNumber[number]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return m.accounts[id].account, nil
}

// ListByOwner returns the accounts of the given owner ordered by id.
func (m *Memory) ListByOwner(_ context.Context, ownerID string) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := []domain.Account{}

	for _, row := range m.accounts {
		if row.account.OwnerID == ownerID {
			items = append(items, row.account)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return items, nil
}

// ListByAccount returns the committed entries of the account, newest first.
func (m *Memory) ListByAccount(_ context.Context, accountID int64) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := []domain.Transaction{}

	for _, t := range m.log {
		if t.AccountID == accountID {
			items = append(items, t)
		}
	}

	sortNewestFirst(items)

	return items, nil
}

// List returns a page of the whole log, newest first.
func (m *Memory) List(_ context.Context, arg domain.ListTransactionsParams) ([]domain.Transaction, error) {
	if arg.Limit < 0 || arg.Offset < 0 {
		return nil, fmt.Errorf("%w: negative limit or offset", domain.ErrInvalidOperation)
	}

	m.mu.RLock()
	items := make([]domain.Transaction, len(m.log))
	copy(items, m.log)
	m.mu.RUnlock()

	sortNewestFirst(items)

	start := int(min(arg.Offset, int64(len(items))))
	end := min(start+int(arg.Limit), len(items))

	return items[start:end], nil
}

func sortNewestFirst(items []domain.Transaction) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
}

// Begin starts a unit of work.
func (m *Memory) Begin(ctx context.Context) (Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("begin: %w", domain.ErrTimeout)
	}

	return &memUnit{
		m:       m,
		held:    make(map[int64]*memAccount),
		pending: make(map[int64]decimal.Decimal),
	}, nil
}

type memUnit struct {
	m       *Memory
	held    map[int64]*memAccount
	pending map[int64]decimal.Decimal
	entries []domain.Transaction
	done    bool
}

func (u *memUnit) LockForUpdate(ctx context.Context, id int64) (domain.Account, error) {
	if u.done {
		return domain.Account{}, domain.ErrUnitDone
	}

	if _, ok := u.held[id]; ok {
		return u.view(id), nil
	}

	u.m.mu.RLock()
	row, ok := u.m.accounts[id]
	u.m.mu.RUnlock()

	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	if err := ctx.Err(); err != nil {
		return domain.Account{}, fmt.Errorf("lock account %d: %w", id, domain.ErrTimeout)
	}

	select {
	case row.lock <- struct{}{}:
	case <-ctx.Done():
		return domain.Account{}, fmt.Errorf("lock account %d: %w", id, domain.ErrTimeout)
	}

	u.held[id] = row

	return u.view(id), nil
}

// view returns the committed account with the unit's pending delta applied.
func (u *memUnit) view(id int64) domain.Account {
	u.m.mu.RLock()
	a := u.held[id].account
	u.m.mu.RUnlock()

	if d, ok := u.pending[id]; ok {
		a.Balance = a.Balance.Add(d)
	}

	return a
}

func (u *memUnit) ApplyBalanceDelta(_ context.Context, id int64, delta decimal.Decimal) (domain.Account, error) {
	if u.done {
		return domain.Account{}, domain.ErrUnitDone
	}

	if _, ok := u.held[id]; !ok {
		return domain.Account{}, fmt.Errorf("%w: account %d is not locked", domain.ErrInvalidOperation, id)
	}

	if !delta.Equal(delta.Truncate(domain.AmountScale)) {
		return domain.Account{}, domain.ErrAmountOutOfRange
	}

	a := u.view(id)

	balance := a.Balance.Add(delta)
	if balance.IsNegative() {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	if balance.GreaterThanOrEqual(domain.MaxAmount) {
		return domain.Account{}, domain.ErrAmountOutOfRange
	}

	u.pending[id] = u.pending[id].Add(delta)
	a.Balance = balance

	return a, nil
}

func (u *memUnit) AppendEntries(_ context.Context, entries ...domain.CreateTransactionParams) ([]domain.Transaction, error) {
	if u.done {
		return nil, domain.ErrUnitDone
	}

	for _, e := range entries {
		if _, ok := u.held[e.AccountID]; !ok {
			return nil, fmt.Errorf("%w: account %d is not locked", domain.ErrInvalidOperation, e.AccountID)
		}

		if err := domain.CheckAmount(e.Amount.Abs()); err != nil {
			return nil, err
		}
	}

	items := make([]domain.Transaction, 0, len(entries))
	now := u.m.now().UTC()

	for _, e := range entries {
		t := domain.Transaction{
			ID:          u.m.lastEntryID.Add(1),
			Kind:        e.Kind,
			AccountID:   e.AccountID,
			Amount:      e.Amount,
			Description: e.Description,
			CreatedAt:   now,
		}

		if e.CounterpartyAccountID != nil {
			id := *e.CounterpartyAccountID
			t.CounterpartyAccountID = &id
		}

		items = append(items, t)
	}

	u.entries = append(u.entries, items...)

	return items, nil
}

func (u *memUnit) Commit() error {
	if u.done {
		return domain.ErrUnitDone
	}

	u.m.mu.Lock()
	for id, d := range u.pending {
		row := u.held[id]
		row.account.Balance = row.account.Balance.Add(d)
	}
	u.m.log = append(u.m.log, u.entries...)
	u.m.mu.Unlock()

	u.release()

	return nil
}

func (u *memUnit) Abort() error {
	if u.done {
		return domain.ErrUnitDone
	}

	u.release()

	return nil
}

func (u *memUnit) release() {
	for _, row := range u.held {
		<-row.lock
	}

	u.held = nil
	u.pending = nil
	u.entries = nil
	u.done = true
}
