package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cradoe/corebank/internal/models"
	"github.com/jmoiron/sqlx"
)

// ApplyFunc receives the locked account and its most recent transaction (nil when there is none).
// It mutates account.Balance and returns the ledger entry to record. Returning an error aborts
// the unit and nothing is written.
type ApplyFunc func(account *models.Account, latest *models.Transaction) (*models.Transaction, error)

// LedgerRepository owns the one multi-row write of the system: a balance change and the
// transaction record that explains it.
type LedgerRepository interface {
	Apply(ctx context.Context, accountID string, fn ApplyFunc) (*models.Account, *models.Transaction, error)
}

type LedgerRepositoryImpl struct {
	db           *sqlx.DB
	transactions TransactionRepository
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &LedgerRepositoryImpl{
		db:           db,
		transactions: NewTransactionRepository(db),
	}
}

// Apply runs fn inside a database transaction.
// The account row is held with a pessimistic lock for the duration of the unit, so writers on the
// same account queue behind each other while other accounts proceed untouched.
func (repo *LedgerRepositoryImpl) Apply(ctx context.Context, accountID string, fn ApplyFunc) (*models.Account, *models.Transaction, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	// no-op once committed
	defer tx.Rollback()

	var account models.Account

	query := `SELECT * FROM accounts WHERE id = $1 FOR UPDATE`

	err = tx.GetContext(ctx, &account, query, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrRecordNotFound
		}
		return nil, nil, err
	}

	latest, found, err := repo.transactions.Latest(ctx, accountID, tx)
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

	// the stored row is what the caller sees, not the value computed above
	query = `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2 RETURNING *`

	err = tx.GetContext(ctx, &account, query, account.Balance, account.ID)
	if err != nil {
		return nil, nil, err
	}

	entry.AccountID = account.ID

	inserted, err := repo.transactions.Insert(ctx, entry, tx)
	if err != nil {
		return nil, nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, nil, err
	}

	return &account, inserted, nil
}
