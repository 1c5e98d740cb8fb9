package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cradoe/corebank/internal/admin"
	"github.com/cradoe/corebank/internal/auth"
	appContext "github.com/cradoe/corebank/internal/context"
	"github.com/cradoe/corebank/internal/errHandler"
	"github.com/cradoe/corebank/internal/helper"
	"github.com/cradoe/corebank/internal/ledger"
	"github.com/cradoe/corebank/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*auth.Session, error) {
	args := m.Called(input)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(email, password)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.Token, error) {
	args := m.Called(refreshToken)
	token, _ := args.Get(0).(*auth.Token)
	return token, args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(id)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Submit(ctx context.Context, input ledger.SubmitInput) (*ledger.SubmitResult, error) {
	args := m.Called(input)
	result, _ := args.Get(0).(*ledger.SubmitResult)
	return result, args.Error(1)
}

func (m *MockTransactionService) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	args := m.Called(accountID)
	transactions, _ := args.Get(0).([]models.Transaction)
	return transactions, args.Error(1)
}

func (m *MockTransactionService) ListAll(ctx context.Context, filter ledger.Filter) ([]models.Transaction, error) {
	args := m.Called(filter)
	transactions, _ := args.Get(0).([]models.Transaction)
	return transactions, args.Error(1)
}

func (m *MockTransactionService) Update(ctx context.Context, id string, patch ledger.TransactionPatch) (*models.Transaction, error) {
	args := m.Called(id, patch)
	transaction, _ := args.Get(0).(*models.Transaction)
	return transaction, args.Error(1)
}

func (m *MockTransactionService) UpdateStatus(ctx context.Context, id, status string) (*models.Transaction, error) {
	args := m.Called(id, status)
	transaction, _ := args.Get(0).(*models.Transaction)
	return transaction, args.Error(1)
}

func (m *MockTransactionService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockTransactionService) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	args := m.Called()
	accounts, _ := args.Get(0).([]models.Account)
	return accounts, args.Error(1)
}

func (m *MockAdminService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return m.account(m.Called(id))
}

func (m *MockAdminService) DeleteAccount(ctx context.Context, actorID, id string) error {
	return m.Called(actorID, id).Error(0)
}

func (m *MockAdminService) Freeze(ctx context.Context, actorID, id string, frozen bool) (*models.Account, error) {
	return m.account(m.Called(actorID, id, frozen))
}

func (m *MockAdminService) SetKYC(ctx context.Context, actorID, id string, verified bool) (*models.Account, error) {
	return m.account(m.Called(actorID, id, verified))
}

func (m *MockAdminService) SetCode(ctx context.Context, actorID, id, code string) (*models.Account, error) {
	return m.account(m.Called(actorID, id, code))
}

func (m *MockAdminService) Patch(ctx context.Context, actorID, id string, patch admin.AccountPatch) (*models.Account, error) {
	return m.account(m.Called(actorID, id, patch))
}

func (m *MockAdminService) OverwriteBalance(ctx context.Context, actorID, id string, balance decimal.Decimal) (*models.Account, error) {
	return m.account(m.Called(actorID, id, balance))
}

func (m *MockAdminService) AuditTrail(ctx context.Context, id string) ([]models.AuditLog, error) {
	args := m.Called(id)
	logs, _ := args.Get(0).([]models.AuditLog)
	return logs, args.Error(1)
}

func (m *MockAdminService) account(args mock.Arguments) (*models.Account, error) {
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

const (
	testAccountID = "6f1c2a8e-4b1d-4c55-9d7e-0b8a4f6c9e21"
	testAdminID   = "0d9b6c3f-2e7a-4a10-8c41-5f3e2b1a7d90"
	testTxID      = "a3e5c7d9-1b2f-4e6a-8c0d-2f4b6d8e0a1c"
)

func newTestErrHandler() *errHandler.ErrorHandler {
	return errHandler.New("", "http://localhost", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestHelper(t *testing.T) (*helper.HelperRepository, *sync.WaitGroup) {
	t.Helper()

	var wg sync.WaitGroup
	return helper.New("http://localhost", &wg, nil), &wg
}

func testAccount() *models.Account {
	return &models.Account{
		ID:            testAccountID,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		AccountNumber: "000000042",
		Balance:       decimal.RequireFromString("1000"),
		Currency:      models.DefaultCurrency,
		Role:          models.RoleUser,
		AccountStatus: models.AccountStatusActive,
		Code:          "secret",
	}
}

func testAdmin() *models.Account {
	a := testAccount()
	a.ID = testAdminID
	a.Email = "admin@example.com"
	a.Role = models.RoleAdmin
	return a
}

// newRequest builds a request whose body is body encoded as JSON. A nil account leaves
// the request anonymous.
func newRequest(t *testing.T, method, target string, body any, account *models.Account) *http.Request {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		js, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	if account != nil {
		req = appContext.ContextSetAuthenticatedUser(req, account)
	}

	return req
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Error, &body))
	return body.Code
}
