package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/coinkeeper/ledger-service/internal/domain"
	"github.com/coinkeeper/ledger-service/internal/store"
)

// memStore is an in-memory Store with real scope semantics: every scope body
// runs against a staged copy of the state, which replaces the committed state
// only when the body returns nil. A failed scope leaves the committed maps
// untouched, so the rollback-dependent behavior of the engine is exercised
// for real rather than stubbed away.
type memStore struct {
	accounts     map[uuid.UUID]domain.Account
	transactions map[uuid.UUID]domain.Transaction
	budgets      []domain.Budget

	scopeCount int
}

func newMemStore() *memStore {
	return &memStore{
		accounts:     make(map[uuid.UUID]domain.Account),
		transactions: make(map[uuid.UUID]domain.Transaction),
	}
}

func (m *memStore) addAccount(balance int64) uuid.UUID {
	id := uuid.New()
	m.accounts[id] = domain.Account{
		ID:             id,
		Name:           "account " + id.String()[:8],
		Type:           domain.AccountBank,
		Balance:        balance,
		InitialBalance: balance,
		Currency:       "USD",
	}
	return id
}

func (m *memStore) WithinScope(ctx context.Context, body func(store.Scope) error) error {
	m.scopeCount++

	staged := &memScope{
		accounts:     make(map[uuid.UUID]domain.Account, len(m.accounts)),
		transactions: make(map[uuid.UUID]domain.Transaction, len(m.transactions)),
	}
	for id, account := range m.accounts {
		staged.accounts[id] = account
	}
	for id, tx := range m.transactions {
		staged.transactions[id] = tx
	}

	if err := body(staged); err != nil {
		return err
	}

	m.accounts = staged.accounts
	m.transactions = staged.transactions
	return nil
}

func (m *memStore) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return &account, nil
}

func (m *memStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (m *memStore) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, ok := m.transactions[id]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	return &tx, nil
}

func (m *memStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (m *memStore) ListByPeriod(ctx context.Context, period store.Period) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for _, tx := range m.transactions {
		if period.Contains(tx.Date) {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (m *memStore) ListBudgets(ctx context.Context, period store.Period) ([]domain.Budget, error) {
	return m.budgets, nil
}

// memScope is the staged state of one in-flight scope.
type memScope struct {
	accounts     map[uuid.UUID]domain.Account
	transactions map[uuid.UUID]domain.Transaction
}

func (sc *memScope) GetAccountForUpdate(id uuid.UUID) (*domain.Account, error) {
	account, ok := sc.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return &account, nil
}

func (sc *memScope) SetAccountBalance(id uuid.UUID, balance int64) error {
	account, ok := sc.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}
	account.Balance = balance
	sc.accounts[id] = account
	return nil
}

func (sc *memScope) InsertAccount(account *domain.Account) error {
	if _, exists := sc.accounts[account.ID]; exists {
		return errors.New("duplicate account id")
	}
	sc.accounts[account.ID] = *account
	return nil
}

func (sc *memScope) ArchiveAccount(id uuid.UUID) error {
	account, ok := sc.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}
	account.Archived = true
	sc.accounts[id] = account
	return nil
}

func (sc *memScope) CountActiveAccounts() (int, error) {
	count := 0
	for _, account := range sc.accounts {
		if !account.Archived {
			count++
		}
	}
	return count, nil
}

func (sc *memScope) GetTransactionForUpdate(id uuid.UUID) (*domain.Transaction, error) {
	tx, ok := sc.transactions[id]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	return &tx, nil
}

func (sc *memScope) InsertTransaction(tx *domain.Transaction) error {
	if _, exists := sc.transactions[tx.ID]; exists {
		return errors.New("duplicate transaction id")
	}
	sc.transactions[tx.ID] = *tx
	return nil
}

func (sc *memScope) UpdateTransaction(tx *domain.Transaction) error {
	if _, ok := sc.transactions[tx.ID]; !ok {
		return store.ErrTransactionNotFound
	}
	sc.transactions[tx.ID] = *tx
	return nil
}

func (sc *memScope) DeleteTransaction(id uuid.UUID) error {
	if _, ok := sc.transactions[id]; !ok {
		return store.ErrTransactionNotFound
	}
	delete(sc.transactions, id)
	return nil
}

func (sc *memScope) SumSignedEffects(accountID uuid.UUID) (int64, error) {
	var sum int64
	for _, tx := range sc.transactions {
		if tx.AccountID == accountID {
			sum += tx.SignedEffect()
		}
	}
	return sum, nil
}

func (sc *memScope) DeleteTransactionsForAccount(accountID uuid.UUID) (int64, error) {
	var removed int64
	for id, tx := range sc.transactions {
		if tx.AccountID == accountID {
			delete(sc.transactions, id)
			removed++
		}
	}
	return removed, nil
}

// publisherStub records events so tests can assert that publishing happens
// only after a successful commit.
type publisherStub struct {
	routingKeys []string
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.routingKeys = append(p.routingKeys, routingKey)
	return nil
}
