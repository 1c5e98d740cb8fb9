package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cradoe/corebank/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccountID = "6f1c2a9e-4a0b-4d6f-9d7e-0a1b2c3d4e5f"

var (
	accountColumns = []string{
		"id", "first_name", "last_name", "date_of_birth", "street", "city", "state", "postal_code",
		"email", "hashed_password", "account_number", "balance", "currency", "role", "account_status",
		"is_frozen", "kyc_verified", "code", "created_at", "updated_at",
	}
	transactionColumns = []string{
		"id", "account_id", "type", "amount", "status", "code", "narration",
		"iban", "bic", "recipient_name", "reference", "created_at", "updated_at",
	}
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func accountRow(balance string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(accountColumns).AddRow(
		testAccountID, "Ada", "Obi", nil, "1 Marina", "Lagos", "Lagos", "100001",
		"ada@example.com", "$2a$12$hash", "123456789", balance, "USD", "user", "active",
		false, true, "", now, now,
	)
}

func transactionRow(id, txType, amount string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(transactionColumns).AddRow(
		id, testAccountID, txType, amount, "pending", nil, "salary",
		nil, nil, nil, nil, now, now,
	)
}

func deposit(amount string) ApplyFunc {
	return func(account *models.Account, latest *models.Transaction) (*models.Transaction, error) {
		value := decimal.RequireFromString(amount)
		account.Balance = account.Balance.Add(value)
		return &models.Transaction{
			ID:        "b3d0c1a2-0000-4000-8000-000000000001",
			Type:      models.TransactionTypeDeposit,
			Amount:    value,
			Status:    models.TransactionStatusPending,
			Narration: "salary",
		}, nil
	}
}

func TestLedgerApplyCommitsBalanceAndRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM accounts WHERE id = \$1 FOR UPDATE`).
		WithArgs(testAccountID).
		WillReturnRows(accountRow("1000.00"))
	mock.ExpectQuery(`FROM transactions WHERE account_id = \$1 ORDER BY created_at DESC LIMIT 1`).
		WithArgs(testAccountID).
		WillReturnRows(sqlmock.NewRows(transactionColumns))
	mock.ExpectQuery(`UPDATE accounts SET balance = \$1, updated_at = NOW\(\) WHERE id = \$2 RETURNING \*`).
		WithArgs(sqlmock.AnyArg(), testAccountID).
		WillReturnRows(accountRow("2000.00"))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnRows(transactionRow("b3d0c1a2-0000-4000-8000-000000000001", "deposit", "1000"))
	mock.ExpectCommit()

	account, entry, err := repo.Apply(context.Background(), testAccountID, deposit("1000"))
	require.NoError(t, err)

	assert.True(t, account.Balance.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, models.TransactionTypeDeposit, entry.Type)
	assert.Equal(t, testAccountID, entry.AccountID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerApplyRollsBackWhenInsertFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	insertErr := errors.New("connection reset by peer")

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM accounts WHERE id = \$1 FOR UPDATE`).
		WithArgs(testAccountID).
		WillReturnRows(accountRow("1000.00"))
	mock.ExpectQuery(`FROM transactions WHERE account_id`).
		WillReturnRows(sqlmock.NewRows(transactionColumns))
	mock.ExpectQuery(`UPDATE accounts SET balance`).
		WillReturnRows(accountRow("2000.00"))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	account, entry, err := repo.Apply(context.Background(), testAccountID, deposit("1000"))

	require.ErrorIs(t, err, insertErr)
	assert.Nil(t, account)
	assert.Nil(t, entry)
	// the balance write was issued but never committed
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerApplyReturnsStoredBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(accountRow("1.00"))
	mock.ExpectQuery(`FROM transactions WHERE account_id`).
		WillReturnRows(sqlmock.NewRows(transactionColumns))
	// NUMERIC(20,2) rounds the written value
	mock.ExpectQuery(`UPDATE accounts SET balance`).
		WithArgs("1.004", testAccountID).
		WillReturnRows(accountRow("1.00"))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnRows(transactionRow("b3d0c1a2-0000-4000-8000-000000000001", "deposit", "0.004"))
	mock.ExpectCommit()

	account, _, err := repo.Apply(context.Background(), testAccountID, deposit("0.004"))
	require.NoError(t, err)

	assert.Equal(t, "1", account.Balance.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerApplyRollsBackWhenCallbackRejects(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	rejected := errors.New("insufficient funds")

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM accounts WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(accountRow("50.00"))
	mock.ExpectQuery(`FROM transactions WHERE account_id`).
		WillReturnRows(sqlmock.NewRows(transactionColumns))
	mock.ExpectRollback()

	_, _, err := repo.Apply(context.Background(), testAccountID, func(account *models.Account, latest *models.Transaction) (*models.Transaction, error) {
		return nil, rejected
	})

	require.ErrorIs(t, err, rejected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerApplyPassesLatestTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(accountRow("10.00"))
	mock.ExpectQuery(`FROM transactions WHERE account_id`).
		WillReturnRows(transactionRow("a1a1a1a1-0000-4000-8000-000000000009", "withdrawal", "5"))
	mock.ExpectRollback()

	var seen *models.Transaction
	_, _, err := repo.Apply(context.Background(), testAccountID, func(account *models.Account, latest *models.Transaction) (*models.Transaction, error) {
		seen = latest
		return nil, errors.New("stop")
	})

	require.Error(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "a1a1a1a1-0000-4000-8000-000000000009", seen.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerApplyMissingAccount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(accountColumns))
	mock.ExpectRollback()

	_, _, err := repo.Apply(context.Background(), testAccountID, deposit("1"))

	require.ErrorIs(t, err, ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountUpdateBuildsOrderedStatement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts SET first_name = $1, is_frozen = $2, updated_at = NOW() WHERE id = $3 RETURNING *`)).
		WithArgs("Ada", true, testAccountID).
		WillReturnRows(accountRow("10.00"))

	account, found, err := repo.Update(context.Background(), testAccountID, map[string]any{
		"is_frozen":  true,
		"first_name": "Ada",
	}, nil)

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ada", account.FirstName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountUpdateRejectsBalanceColumn(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewAccountRepository(db)

	_, _, err := repo.Update(context.Background(), testAccountID, map[string]any{
		"balance": "1000000",
	}, nil)

	require.Error(t, err)
}

func TestTransactionDeleteReportsMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectExec(`DELETE FROM transactions WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := repo.Delete(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}
