package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/mocks"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	adminID   = "a0000000-0000-4000-8000-000000000001"
	accountID = "6f1c2a9e-4a0b-4d6f-9d7e-0a1b2c3d4e5f"
)

var accountColumns = []string{
	"id", "first_name", "last_name", "date_of_birth", "street", "city", "state", "postal_code",
	"email", "hashed_password", "account_number", "balance", "currency", "role", "account_status",
	"is_frozen", "kyc_verified", "code", "created_at", "updated_at",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func accountRow(balance string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(accountColumns).AddRow(
		accountID, "Ada", "Obi", nil, "", "", "", "",
		"ada@example.com", "$2a$12$hash", "123456789", balance, "USD", "user", "active",
		false, false, "", now, now,
	)
}

func newMockedService() (*Service, *mocks.MockAccountRepo, *mocks.MockAuditRepo) {
	accounts := new(mocks.MockAccountRepo)
	audit := new(mocks.MockAuditRepo)
	return NewService(nil, accounts, audit, discardLogger()), accounts, audit
}

func TestOverwriteBalanceCommitsWithAuditRow(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := repository.NewFromDB(sqlx.NewDb(sqlDB, "postgres"))
	svc := NewService(db, db.Account(), db.Audit(), discardLogger())

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`SELECT \* FROM accounts WHERE id = \$1 FOR UPDATE`).
		WithArgs(accountID).
		WillReturnRows(accountRow("120.00"))
	sqlMock.ExpectQuery(`UPDATE accounts SET balance = \$1`).
		WithArgs(decimal.RequireFromString("5000"), accountID).
		WillReturnRows(accountRow("5000.00"))
	sqlMock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(sqlmock.AnyArg(), adminID, repository.AuditAccountEntity, accountID,
			"Balance overwritten from 120.00 to 5000.00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	account, err := svc.OverwriteBalance(context.Background(), adminID, accountID, decimal.RequireFromString("5000"))
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("5000").Equal(account.Balance))
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOverwriteBalanceRollsBackWhenAuditFails(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := repository.NewFromDB(sqlx.NewDb(sqlDB, "postgres"))
	svc := NewService(db, db.Account(), db.Audit(), discardLogger())

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`FOR UPDATE`).WillReturnRows(accountRow("120.00"))
	sqlMock.ExpectQuery(`UPDATE accounts SET balance`).WillReturnRows(accountRow("0.00"))
	sqlMock.ExpectExec(`INSERT INTO audit_logs`).WillReturnError(errors.New("disk full"))
	sqlMock.ExpectRollback()

	_, err = svc.OverwriteBalance(context.Background(), adminID, accountID, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrTransient)
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOverwriteBalanceMissingAccount(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := repository.NewFromDB(sqlx.NewDb(sqlDB, "postgres"))
	svc := NewService(db, db.Account(), db.Audit(), discardLogger())

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(accountColumns))
	sqlMock.ExpectRollback()

	_, err = svc.OverwriteBalance(context.Background(), adminID, accountID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOverwriteBalanceRejectsNegative(t *testing.T) {
	svc, accounts, _ := newMockedService()

	_, err := svc.OverwriteBalance(context.Background(), adminID, accountID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	accounts.AssertNotCalled(t, "GetForUpdate", mock.Anything)
}

func TestOverwriteBalanceRejectsSubCentPrecision(t *testing.T) {
	svc, accounts, _ := newMockedService()

	_, err := svc.OverwriteBalance(context.Background(), adminID, accountID, decimal.RequireFromString("10.001"))
	assert.ErrorIs(t, err, ErrBalancePrecision)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	accounts.AssertNotCalled(t, "GetForUpdate", mock.Anything)
}

func TestFreezeWritesAuditRow(t *testing.T) {
	svc, accounts, audit := newMockedService()

	frozen := &models.Account{ID: accountID, IsFrozen: true}
	accounts.On("Update", accountID, map[string]any{"is_frozen": true}).Return(frozen, true, nil)
	audit.On("Insert", mock.MatchedBy(func(log *models.AuditLog) bool {
		return log.ActorID == adminID && log.EntityId == accountID && log.Description == "Account frozen"
	})).Return(&models.AuditLog{}, nil)

	account, err := svc.Freeze(context.Background(), adminID, accountID, true)
	require.NoError(t, err)

	assert.True(t, account.IsFrozen)
	accounts.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestSetKYCMissingAccount(t *testing.T) {
	svc, accounts, audit := newMockedService()

	accounts.On("Update", accountID, map[string]any{"kyc_verified": true}).Return(nil, false, nil)

	_, err := svc.SetKYC(context.Background(), adminID, accountID, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	audit.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestSetCodeTrimsWhitespace(t *testing.T) {
	svc, accounts, audit := newMockedService()

	accounts.On("Update", accountID, map[string]any{"code": "4321"}).Return(&models.Account{Code: "4321"}, true, nil)
	audit.On("Insert", mock.Anything).Return(&models.AuditLog{}, nil)

	account, err := svc.SetCode(context.Background(), adminID, accountID, " 4321 ")
	require.NoError(t, err)
	assert.Equal(t, "4321", account.Code)
}

func TestPatchValidatesEnums(t *testing.T) {
	svc, accounts, _ := newMockedService()

	currency := "XYZ"
	_, err := svc.Patch(context.Background(), adminID, accountID, AccountPatch{Currency: &currency})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "Allowed values: USD")

	role := "superuser"
	_, err = svc.Patch(context.Background(), adminID, accountID, AccountPatch{Role: &role})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.Patch(context.Background(), adminID, accountID, AccountPatch{})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	accounts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPatchEmailConflict(t *testing.T) {
	svc, accounts, _ := newMockedService()

	email := "Taken@Example.com"
	violation := &pq.Error{Code: "23505", Constraint: repository.AccountEmailConstraint}
	accounts.On("Update", accountID, map[string]any{"email": "taken@example.com"}).Return(nil, false, violation)

	_, err := svc.Patch(context.Background(), adminID, accountID, AccountPatch{Email: &email})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestPatchUpdatesProfile(t *testing.T) {
	svc, accounts, audit := newMockedService()

	city := "Abuja"
	status := models.AccountStatusSuspended
	accounts.On("Update", accountID, map[string]any{"city": "Abuja", "account_status": status}).
		Return(&models.Account{City: city, AccountStatus: status}, true, nil)
	audit.On("Insert", mock.MatchedBy(func(log *models.AuditLog) bool {
		return log.Description == "Account updated: account_status, city"
	})).Return(&models.AuditLog{}, nil)

	account, err := svc.Patch(context.Background(), adminID, accountID, AccountPatch{City: &city, AccountStatus: &status})
	require.NoError(t, err)

	assert.Equal(t, status, account.AccountStatus)
	audit.AssertExpectations(t)
}

func TestDeleteAccount(t *testing.T) {
	svc, accounts, audit := newMockedService()

	accounts.On("Delete", accountID).Return(true, nil).Once()
	accounts.On("Delete", accountID).Return(false, nil).Once()
	audit.On("Insert", mock.Anything).Return(&models.AuditLog{}, nil)

	require.NoError(t, svc.DeleteAccount(context.Background(), adminID, accountID))

	err := svc.DeleteAccount(context.Background(), adminID, accountID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuditTrail(t *testing.T) {
	svc, accounts, audit := newMockedService()

	logs := []models.AuditLog{{ID: "1", Description: "Account frozen"}}
	accounts.On("GetOne", accountID).Return(&models.Account{ID: accountID}, true, nil)
	audit.On("GetAllByEntity", repository.AuditAccountEntity, accountID).Return(logs, nil)

	got, err := svc.AuditTrail(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, logs, got)
}

func TestListAccountsStoreFailure(t *testing.T) {
	svc, accounts, _ := newMockedService()

	accounts.On("GetAll").Return(nil, errors.New("connection refused"))

	_, err := svc.ListAccounts(context.Background())
	assert.ErrorIs(t, err, apperr.ErrTransient)
}
