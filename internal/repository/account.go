package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cradoe/corebank/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	AccountEmailConstraint         = "accounts_email_key"
	AccountAccountNumberConstraint = "accounts_account_number_key"
)

type AccountRepository interface {
	Insert(ctx context.Context, account *models.Account, tx *sqlx.Tx) error
	GetOne(ctx context.Context, id string) (*models.Account, bool, error)
	GetForUpdate(ctx context.Context, id string, tx *sqlx.Tx) (*models.Account, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, bool, error)
	GetAll(ctx context.Context) ([]models.Account, error)
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
	Update(ctx context.Context, id string, columns map[string]any, tx *sqlx.Tx) (*models.Account, bool, error)
	SetBalance(ctx context.Context, id string, balance decimal.Decimal, tx *sqlx.Tx) (*models.Account, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// accountPatchColumns are the columns Update is allowed to write.
// balance is intentionally absent: it only moves through the ledger or SetBalance.
var accountPatchColumns = map[string]bool{
	"first_name":     true,
	"last_name":      true,
	"date_of_birth":  true,
	"street":         true,
	"city":           true,
	"state":          true,
	"postal_code":    true,
	"email":          true,
	"currency":       true,
	"role":           true,
	"account_status": true,
	"is_frozen":      true,
	"kyc_verified":   true,
	"code":           true,
}

type AccountRepositoryImpl struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

func (repo *AccountRepositoryImpl) Insert(ctx context.Context, account *models.Account, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	query := `
		INSERT INTO accounts (id, first_name, last_name, date_of_birth, street, city, state, postal_code,
			email, hashed_password, account_number, currency, role, account_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING balance, is_frozen, kyc_verified, code, created_at, updated_at`

	return sqlx.GetContext(ctx, queryer(repo.db, tx), account, query,
		account.ID,
		account.FirstName,
		account.LastName,
		account.DateOfBirth,
		account.Street,
		account.City,
		account.State,
		account.PostalCode,
		account.Email,
		account.HashedPassword,
		account.AccountNumber,
		account.Currency,
		account.Role,
		account.AccountStatus,
	)
}

func (repo *AccountRepositoryImpl) GetOne(ctx context.Context, id string) (*models.Account, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var account models.Account

	query := `SELECT * FROM accounts WHERE id = $1`

	err := repo.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &account, true, nil
}

// GetForUpdate reads the account and holds its row lock until tx ends.
func (repo *AccountRepositoryImpl) GetForUpdate(ctx context.Context, id string, tx *sqlx.Tx) (*models.Account, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var account models.Account

	query := `SELECT * FROM accounts WHERE id = $1 FOR UPDATE`

	err := tx.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &account, true, nil
}

func (repo *AccountRepositoryImpl) GetByEmail(ctx context.Context, email string) (*models.Account, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var account models.Account

	query := `SELECT * FROM accounts WHERE email = $1`

	err := repo.db.GetContext(ctx, &account, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &account, true, nil
}

func (repo *AccountRepositoryImpl) GetAll(ctx context.Context) ([]models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	accounts := []models.Account{}

	query := `SELECT * FROM accounts ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &accounts, query)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (repo *AccountRepositoryImpl) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)`

	err := repo.db.GetContext(ctx, &exists, query, accountNumber)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Update writes the given columns and returns the updated row.
// Column names outside the patchable set are rejected.
func (repo *AccountRepositoryImpl) Update(ctx context.Context, id string, columns map[string]any, tx *sqlx.Tx) (*models.Account, bool, error) {
	if len(columns) == 0 {
		return nil, false, errors.New("no columns to update")
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		if !accountPatchColumns[name] {
			return nil, false, fmt.Errorf("column %q cannot be updated", name)
		}
		names = append(names, name)
	}
	// stable order keeps the generated SQL deterministic
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets = append(sets, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, columns[name])
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE accounts SET %s, updated_at = NOW() WHERE id = $%d RETURNING *`,
		strings.Join(sets, ", "), len(args))

	return repo.updateOne(ctx, tx, query, args...)
}

func (repo *AccountRepositoryImpl) SetBalance(ctx context.Context, id string, balance decimal.Decimal, tx *sqlx.Tx) (*models.Account, bool, error) {
	query := `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2 RETURNING *`

	return repo.updateOne(ctx, tx, query, balance, id)
}

func (repo *AccountRepositoryImpl) updateOne(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (*models.Account, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var account models.Account

	err := sqlx.GetContext(ctx, queryer(repo.db, tx), &account, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &account, true, nil
}

func (repo *AccountRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `DELETE FROM accounts WHERE id = $1`

	result, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
