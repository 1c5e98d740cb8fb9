// Package auth covers registration, login and the session tokens that follow.
package auth

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/repository"
	"github.com/cradoe/gopass"
)

const accountNumberAttempts = 10

// Login descriptions are stored in the audit log
const (
	AuditLoginDescription       = "Login successful"
	AuditFailedLoginDescription = "Login failed: incorrect password"
	AuditRegisterDescription    = "Account registered"
)

var (
	ErrEmailTaken         = apperr.New(apperr.KindConflict, "Email is already in use")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "Incorrect email/password")
	ErrAccountNotFound    = apperr.New(apperr.KindNotFound, "User not found")
)

type Service struct {
	accounts repository.AccountRepository
	audit    repository.AuditRepository
	tokens   *TokenIssuer
	logger   *slog.Logger
}

func NewService(accounts repository.AccountRepository, audit repository.AuditRepository, tokens *TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		audit:    audit,
		tokens:   tokens,
		logger:   logger,
	}
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth *time.Time
	Street      string
	City        string
	State       string
	PostalCode  string
	Currency    string
}

type Session struct {
	Account *models.Account
	Tokens  *TokenPair
}

// Register creates a user account. Role and balance are never taken from the caller.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	account, err := s.CreateAccount(ctx, input, models.RoleUser)
	if err != nil {
		return nil, err
	}

	s.record(ctx, account.ID, AuditRegisterDescription)

	tokens, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, err
	}

	return &Session{Account: account, Tokens: tokens}, nil
}

// CreateAccount hashes the password, allocates an unused account number and inserts the account.
func (s *Service) CreateAccount(ctx context.Context, input RegisterInput, role string) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, found, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, transient(err)
	}
	if found {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	accountNumber, err := s.newAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	account := &models.Account{
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Street:         input.Street,
		City:           input.City,
		State:          input.State,
		PostalCode:     input.PostalCode,
		Email:          email,
		HashedPassword: hashedPassword,
		AccountNumber:  accountNumber,
		Currency:       currency,
		Role:           role,
		AccountStatus:  models.AccountStatusActive,
	}
	if input.DateOfBirth != nil {
		account.DateOfBirth = sql.NullTime{Time: *input.DateOfBirth, Valid: true}
	}

	err = s.accounts.Insert(ctx, account, nil)
	if err != nil {
		// another registration may have claimed the email after our lookup
		if repository.IsUniqueViolation(err, repository.AccountEmailConstraint) {
			return nil, ErrEmailTaken
		}
		return nil, transient(err)
	}

	return account, nil
}

// newAccountNumber draws random 9 digit numbers until one is unused.
func (s *Service) newAccountNumber(ctx context.Context) (string, error) {
	for range accountNumberAttempts {
		candidate := fmt.Sprintf("%09d", rand.IntN(1_000_000_000))

		exists, err := s.accounts.AccountNumberExists(ctx, candidate)
		if err != nil {
			return "", transient(err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", apperr.New(apperr.KindTransient, "Could not allocate an account number, please try again")
}

// Login checks the credentials. Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	account, found, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, ErrInvalidCredentials
	}

	matches, err := gopass.ComparePasswordAndHash(password, account.HashedPassword)
	if err != nil {
		s.logger.Warn("password comparison failed", "account_id", account.ID, "error", err.Error())
	}
	if err != nil || !matches {
		s.record(ctx, account.ID, AuditFailedLoginDescription)
		return nil, ErrInvalidCredentials
	}

	s.record(ctx, account.ID, AuditLoginDescription)

	tokens, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, err
	}

	return &Session{Account: account, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	account, found, err := s.accounts.GetOne(ctx, claims.AccountID)
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, ErrInvalidToken
	}

	return s.tokens.IssueAccess(account)
}

// Authenticate resolves an access token to its account.
// A valid token whose account has since been deleted yields (nil, nil).
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.Account, error) {
	claims, err := s.tokens.Verify(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	account, found, err := s.accounts.GetOne(ctx, claims.AccountID)
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, nil
	}

	return account, nil
}

func (s *Service) Me(ctx context.Context, id string) (*models.Account, error) {
	account, found, err := s.accounts.GetOne(ctx, id)
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *Service) record(ctx context.Context, accountID, description string) {
	_, err := s.audit.Insert(ctx, &models.AuditLog{
		ActorID:     accountID,
		Entity:      repository.AuditAccountEntity,
		EntityId:    accountID,
		Description: description,
	}, nil)
	if err != nil {
		s.logger.Error("audit log not written", "account_id", accountID, "description", description, "error", err.Error())
	}
}

func transient(err error) error {
	return apperr.Wrap(apperr.KindTransient, "The request could not be completed, please try again", err)
}
