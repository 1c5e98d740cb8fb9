package mocks

import (
	"context"

	"github.com/cradoe/corebank/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Insert(ctx context.Context, account *models.Account, tx *sqlx.Tx) error {
	args := m.Called(account)
	return args.Error(0)
}

func (m *MockAccountRepo) GetOne(ctx context.Context, id string) (*models.Account, bool, error) {
	args := m.Called(id)
	return account(args.Get(0)), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepo) GetForUpdate(ctx context.Context, id string, tx *sqlx.Tx) (*models.Account, bool, error) {
	args := m.Called(id)
	return account(args.Get(0)), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, bool, error) {
	args := m.Called(email)
	return account(args.Get(0)), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepo) GetAll(ctx context.Context) ([]models.Account, error) {
	args := m.Called()
	accounts, _ := args.Get(0).([]models.Account)
	return accounts, args.Error(1)
}

func (m *MockAccountRepo) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	args := m.Called(accountNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepo) Update(ctx context.Context, id string, columns map[string]any, tx *sqlx.Tx) (*models.Account, bool, error) {
	args := m.Called(id, columns)
	return account(args.Get(0)), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepo) SetBalance(ctx context.Context, id string, balance decimal.Decimal, tx *sqlx.Tx) (*models.Account, bool, error) {
	args := m.Called(id, balance)
	return account(args.Get(0)), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepo) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

// account tolerates a nil return configured as Return(nil, false, nil).
func account(v any) *models.Account {
	a, _ := v.(*models.Account)
	return a
}
