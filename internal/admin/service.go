// Package admin holds the account administration operations available to the admin role.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/repository"
	"github.com/cradoe/corebank/internal/validator"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound  = apperr.New(apperr.KindNotFound, "User not found")
	ErrEmailTaken       = apperr.New(apperr.KindConflict, "Email is already in use")
	ErrNegativeBalance  = apperr.New(apperr.KindInvalidArgument, "Balance cannot be negative")
	ErrBalancePrecision = apperr.New(apperr.KindInvalidArgument, "Balance must not have more than two decimal places")
	ErrEmptyPatch       = apperr.New(apperr.KindInvalidArgument, "No user fields to update")
)

// TxBeginner is satisfied by repository.Database.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type Service struct {
	db       TxBeginner
	accounts repository.AccountRepository
	audit    repository.AuditRepository
	logger   *slog.Logger
}

func NewService(db TxBeginner, accounts repository.AccountRepository, audit repository.AuditRepository, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		accounts: accounts,
		audit:    audit,
		logger:   logger,
	}
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accounts.GetAll(ctx)
	if err != nil {
		return nil, transient(err)
	}
	return accounts, nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, found, err := s.accounts.GetOne(ctx, id)
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// DeleteAccount removes the account; its transactions go with it.
func (s *Service) DeleteAccount(ctx context.Context, actorID, id string) error {
	deleted, err := s.accounts.Delete(ctx, id)
	if err != nil {
		return transient(err)
	}
	if !deleted {
		return ErrAccountNotFound
	}

	s.record(ctx, actorID, id, "Account deleted")
	return nil
}

func (s *Service) Freeze(ctx context.Context, actorID, id string, frozen bool) (*models.Account, error) {
	description := "Account unfrozen"
	if frozen {
		description = "Account frozen"
	}
	return s.update(ctx, actorID, id, map[string]any{"is_frozen": frozen}, description)
}

func (s *Service) SetKYC(ctx context.Context, actorID, id string, verified bool) (*models.Account, error) {
	return s.update(ctx, actorID, id, map[string]any{"kyc_verified": verified},
		fmt.Sprintf("KYC verification set to %t", verified))
}

// SetCode stores the authorization code required from accounts without KYC.
// An empty code clears it, which blocks those accounts from transacting.
func (s *Service) SetCode(ctx context.Context, actorID, id, code string) (*models.Account, error) {
	code = strings.TrimSpace(code)

	description := "Transaction code updated"
	if code == "" {
		description = "Transaction code cleared"
	}
	return s.update(ctx, actorID, id, map[string]any{"code": code}, description)
}

// AccountPatch is a partial edit of an account's profile and flags. Nil fields are left alone.
type AccountPatch struct {
	FirstName     *string
	LastName      *string
	DateOfBirth   *time.Time
	Street        *string
	City          *string
	State         *string
	PostalCode    *string
	Email         *string
	Currency      *string
	Role          *string
	AccountStatus *string
	IsFrozen      *bool
	KYCVerified   *bool
	Code          *string
}

func (p AccountPatch) columns() (map[string]any, error) {
	columns := map[string]any{}

	text := map[string]*string{
		"first_name":  p.FirstName,
		"last_name":   p.LastName,
		"street":      p.Street,
		"city":        p.City,
		"state":       p.State,
		"postal_code": p.PostalCode,
		"code":        p.Code,
	}
	for column, value := range text {
		if value != nil {
			columns[column] = strings.TrimSpace(*value)
		}
	}

	if p.FirstName != nil && columns["first_name"] == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "First name must not be empty")
	}
	if p.LastName != nil && columns["last_name"] == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "Last name must not be empty")
	}

	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		if !validator.IsEmail(email) {
			return nil, apperr.New(apperr.KindInvalidArgument, "Email must be a valid email address")
		}
		columns["email"] = email
	}

	enums := []struct {
		column  string
		value   *string
		allowed []string
		field   string
	}{
		{"currency", p.Currency, models.Currencies, "currency"},
		{"role", p.Role, models.Roles, "role"},
		{"account_status", p.AccountStatus, models.AccountStatuses, "account status"},
	}
	for _, enum := range enums {
		if enum.value == nil {
			continue
		}
		if !validator.PermittedValue(*enum.value, enum.allowed...) {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "Invalid %s. Allowed values: %s",
				enum.field, strings.Join(enum.allowed, ", "))
		}
		columns[enum.column] = *enum.value
	}

	if p.DateOfBirth != nil {
		columns["date_of_birth"] = sql.NullTime{Time: *p.DateOfBirth, Valid: !p.DateOfBirth.IsZero()}
	}
	if p.IsFrozen != nil {
		columns["is_frozen"] = *p.IsFrozen
	}
	if p.KYCVerified != nil {
		columns["kyc_verified"] = *p.KYCVerified
	}

	if len(columns) == 0 {
		return nil, ErrEmptyPatch
	}

	return columns, nil
}

// Patch edits profile fields and flags. The balance is not patchable; see OverwriteBalance.
func (s *Service) Patch(ctx context.Context, actorID, id string, patch AccountPatch) (*models.Account, error) {
	columns, err := patch.columns()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}

	return s.update(ctx, actorID, id, columns, "Account updated: "+strings.Join(sortedNames(names), ", "))
}

// OverwriteBalance sets the balance directly, outside the transaction workflow.
// The new balance and the audit row recording the old one commit together.
func (s *Service) OverwriteBalance(ctx context.Context, actorID, id string, balance decimal.Decimal) (*models.Account, error) {
	if balance.IsNegative() {
		return nil, ErrNegativeBalance
	}
	if !balance.Equal(balance.Truncate(2)) {
		return nil, ErrBalancePrecision
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, transient(err)
	}
	defer tx.Rollback()

	current, found, err := s.accounts.GetForUpdate(ctx, id, tx)
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, ErrAccountNotFound
	}

	updated, _, err := s.accounts.SetBalance(ctx, id, balance, tx)
	if err != nil {
		return nil, transient(err)
	}

	_, err = s.audit.Insert(ctx, &models.AuditLog{
		ActorID:  actorID,
		Entity:   repository.AuditAccountEntity,
		EntityId: id,
		Description: fmt.Sprintf("Balance overwritten from %s to %s",
			current.Balance.StringFixed(2), balance.StringFixed(2)),
	}, tx)
	if err != nil {
		return nil, transient(err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, transient(err)
	}

	s.logger.Info("balance overwritten", "actor_id", actorID, "account_id", id,
		"from", current.Balance.StringFixed(2), "to", balance.StringFixed(2))

	return updated, nil
}

// AuditTrail lists the audit entries recorded against an account, newest first.
func (s *Service) AuditTrail(ctx context.Context, id string) ([]models.AuditLog, error) {
	_, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.audit.GetAllByEntity(ctx, repository.AuditAccountEntity, id)
	if err != nil {
		return nil, transient(err)
	}
	return logs, nil
}

func (s *Service) update(ctx context.Context, actorID, id string, columns map[string]any, description string) (*models.Account, error) {
	account, found, err := s.accounts.Update(ctx, id, columns, nil)
	if err != nil {
		if repository.IsUniqueViolation(err, repository.AccountEmailConstraint) {
			return nil, ErrEmailTaken
		}
		return nil, transient(err)
	}
	if !found {
		return nil, ErrAccountNotFound
	}

	s.record(ctx, actorID, id, description)
	return account, nil
}

// record writes an audit row for a mutation that has already committed. A failure here is
// logged rather than returned since the change itself went through.
func (s *Service) record(ctx context.Context, actorID, id, description string) {
	_, err := s.audit.Insert(ctx, &models.AuditLog{
		ActorID:     actorID,
		Entity:      repository.AuditAccountEntity,
		EntityId:    id,
		Description: description,
	}, nil)
	if err != nil {
		s.logger.Error("audit log not written", "actor_id", actorID, "account_id", id, "error", err.Error())
	}
}

func sortedNames(names []string) []string {
	slices.Sort(names)
	return names
}

func transient(err error) error {
	return apperr.Wrap(apperr.KindTransient, "The request could not be completed, please try again", err)
}
