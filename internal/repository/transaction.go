package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cradoe/corebank/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TransactionRepository interface {
	Insert(ctx context.Context, transaction *models.Transaction, tx *sqlx.Tx) (*models.Transaction, error)
	GetOne(ctx context.Context, id string) (*models.Transaction, bool, error)
	GetAllByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error)
	GetAll(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	Latest(ctx context.Context, accountID string, tx *sqlx.Tx) (*models.Transaction, bool, error)
	Update(ctx context.Context, id string, columns map[string]any) (*models.Transaction, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

var transactionPatchColumns = map[string]bool{
	"type":           true,
	"amount":         true,
	"status":         true,
	"code":           true,
	"narration":      true,
	"created_at":     true,
	"iban":           true,
	"bic":            true,
	"recipient_name": true,
	"reference":      true,
}

type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

func (repo *TransactionRepositoryImpl) Insert(ctx context.Context, transaction *models.Transaction, tx *sqlx.Tx) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}

	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now().UTC()
	}

	if transaction.UpdatedAt.IsZero() {
		transaction.UpdatedAt = transaction.CreatedAt
	}

	var trans models.Transaction

	query := `
		INSERT INTO transactions (id, account_id, type, amount, status, code, narration,
			iban, bic, recipient_name, reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING *`

	err := sqlx.GetContext(ctx, queryer(repo.db, tx), &trans, query,
		transaction.ID,
		transaction.AccountID,
		transaction.Type,
		transaction.Amount,
		transaction.Status,
		transaction.Code,
		transaction.Narration,
		transaction.IBAN,
		transaction.BIC,
		transaction.RecipientName,
		transaction.Reference,
		transaction.CreatedAt,
		transaction.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &trans, nil
}

func (repo *TransactionRepositoryImpl) GetOne(ctx context.Context, id string) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var trans models.Transaction

	query := `SELECT * FROM transactions WHERE id = $1`

	err := repo.db.GetContext(ctx, &trans, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &trans, true, nil
}

func (repo *TransactionRepositoryImpl) GetAllByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	transactions := []models.Transaction{}

	query := `SELECT * FROM transactions WHERE account_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &transactions, query, accountID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func (repo *TransactionRepositoryImpl) GetAll(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	transactions := []models.Transaction{}

	query := `
		SELECT * FROM transactions
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	err := repo.db.SelectContext(ctx, &transactions, query, filter.StartDate, filter.EndDate, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// Latest returns the most recent transaction of an account. It backs the cooldown rule,
// so inside the ledger unit it runs on the same transaction that holds the account lock.
func (repo *TransactionRepositoryImpl) Latest(ctx context.Context, accountID string, tx *sqlx.Tx) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var trans models.Transaction

	query := `SELECT * FROM transactions WHERE account_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := sqlx.GetContext(ctx, queryer(repo.db, tx), &trans, query, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &trans, true, nil
}

func (repo *TransactionRepositoryImpl) Update(ctx context.Context, id string, columns map[string]any) (*models.Transaction, bool, error) {
	if len(columns) == 0 {
		return nil, false, errors.New("no columns to update")
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		if !transactionPatchColumns[name] {
			return nil, false, fmt.Errorf("column %q cannot be updated", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets = append(sets, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, columns[name])
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE transactions SET %s, updated_at = NOW() WHERE id = $%d RETURNING *`,
		strings.Join(sets, ", "), len(args))

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var trans models.Transaction

	err := repo.db.GetContext(ctx, &trans, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &trans, true, nil
}

func (repo *TransactionRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := repo.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (repo *TransactionRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := repo.db.ExecContext(ctx, `DELETE FROM transactions`)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
