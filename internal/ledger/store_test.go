package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// memStore keeps accounts and transactions in memory and gives Apply the same
// all-or-nothing behaviour as the SQL unit, serialized per account.
type memStore struct {
	mu           sync.Mutex
	accounts     map[string]models.Account
	transactions []models.Transaction
	locks        map[string]*sync.Mutex

	// failAfterBalance makes Apply fail after the callback succeeded, before anything is kept.
	failAfterBalance error
}

func newMemStore(accounts ...models.Account) *memStore {
	store := &memStore{
		accounts: map[string]models.Account{},
		locks:    map[string]*sync.Mutex{},
	}
	for _, account := range accounts {
		store.accounts[account.ID] = account
	}
	return store
}

func (m *memStore) accountLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

func (m *memStore) account(id string) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id]
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

func (m *memStore) GetOne(ctx context.Context, id string) (*models.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, false, nil
	}
	return &account, true, nil
}

func (m *memStore) Apply(ctx context.Context, accountID string, fn repository.ApplyFunc) (*models.Account, *models.Transaction, error) {
	lock := m.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	account, ok := m.accounts[accountID]
	m.mu.Unlock()
	if !ok {
		return nil, nil, repository.ErrRecordNotFound
	}

	latest, found, err := m.Latest(ctx, accountID, nil)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		latest = nil
	}

	entry, err := fn(&account, latest)
	if err != nil {
		return nil, nil, err
	}
	if m.failAfterBalance != nil {
		return nil, nil, m.failAfterBalance
	}

	entry.AccountID = account.ID
	inserted, err := m.Insert(ctx, entry, nil)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	m.accounts[accountID] = account
	m.mu.Unlock()

	return &account, inserted, nil
}

func (m *memStore) Insert(ctx context.Context, transaction *models.Transaction, tx *sqlx.Tx) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	m.transactions = append(m.transactions, *transaction)

	inserted := *transaction
	return &inserted, nil
}

func (m *memStore) GetAllByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			result = append(result, t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *memStore) GetAll(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Transaction
	for _, t := range m.transactions {
		if filter.StartDate != nil && t.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && t.CreatedAt.After(*filter.EndDate) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (m *memStore) Latest(ctx context.Context, accountID string, tx *sqlx.Tx) (*models.Transaction, bool, error) {
	all, _ := m.GetAllByAccountID(ctx, accountID)
	if len(all) == 0 {
		return nil, false, nil
	}
	return &all[0], true, nil
}

func (m *memStore) findTransaction(id string) (*models.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.transactions {
		if m.transactions[i].ID == id {
			t := m.transactions[i]
			return &t, true
		}
	}
	return nil, false
}

func (m *memStore) Update(ctx context.Context, id string, columns map[string]any) (*models.Transaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.transactions {
		t := &m.transactions[i]
		if t.ID != id {
			continue
		}
		for column, value := range columns {
			switch column {
			case "status":
				t.Status = value.(string)
			case "type":
				t.Type = value.(string)
			case "narration":
				t.Narration = value.(string)
			case "created_at":
				t.CreatedAt = value.(time.Time)
			}
		}
		updated := *t
		return &updated, true, nil
	}
	return nil, false, nil
}

func (m *memStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.transactions {
		if m.transactions[i].ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.transactions))
	m.transactions = nil
	return n, nil
}

// transactionStore adapts memStore to the transaction repository, whose GetOne
// clashes with the account lookup of the same name.
type transactionStore struct {
	*memStore
}

func (s transactionStore) GetOne(ctx context.Context, id string) (*models.Transaction, bool, error) {
	t, ok := s.memStore.findTransaction(id)
	return t, ok, nil
}

var errInjected = errors.New("connection reset by peer")
